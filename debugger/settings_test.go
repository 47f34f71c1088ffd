// Copyright © 2024 The ELPS authors

package debugger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_Defaults(t *testing.T) {
	t.Parallel()
	s := NewSettings()
	assert.True(t, s.Bool(SettingAutolist))
	assert.False(t, s.Bool(SettingBasename))
	assert.True(t, s.Bool(SettingFullpath))
	assert.False(t, s.Bool(SettingLinetrace))
	assert.False(t, s.Bool(SettingPostMortem))
	assert.Equal(t, 10, s.Int(SettingListsize))
	assert.Equal(t, CallStyleLong, s.Enum(SettingCallstyle))
	assert.Len(t, s.Snapshot(), len(SettingNames()))
}

func TestSettings_Assign(t *testing.T) {
	t.Parallel()
	s := NewSettings()

	name, err := s.Assign("nofullpath")
	require.NoError(t, err)
	assert.Equal(t, SettingFullpath, name)
	assert.False(t, s.Bool(SettingFullpath))

	name, err = s.Assign("fullpath")
	require.NoError(t, err)
	assert.Equal(t, SettingFullpath, name)
	assert.True(t, s.Bool(SettingFullpath))

	_, err = s.Assign("linetrace off")
	require.NoError(t, err)
	assert.False(t, s.Bool(SettingLinetrace))

	_, err = s.Assign("listsize 25")
	require.NoError(t, err)
	assert.Equal(t, 25, s.Int(SettingListsize))

	_, err = s.Assign("callstyle SHORT")
	require.NoError(t, err)
	assert.Equal(t, CallStyleShort, s.Enum(SettingCallstyle))
}

func TestSettings_AssignErrors(t *testing.T) {
	t.Parallel()
	s := NewSettings()
	for _, args := range []string{"", "listsize", "listsize 0", "listsize x", "callstyle medium", "autolist maybe"} {
		_, err := s.Assign(args)
		assert.Error(t, err, args)
		var uerr *UserInputError
		assert.True(t, errors.As(err, &uerr), args)
	}
	_, err := s.Assign("bogus")
	assert.True(t, errors.Is(err, ErrUnknownSetting))
	_, err = s.Assign("nolistsize")
	assert.True(t, errors.Is(err, ErrUnknownSetting))
	assert.Equal(t, 10, s.Int(SettingListsize))
}

func TestSettings_Show(t *testing.T) {
	t.Parallel()
	s := NewSettings()
	line, err := s.Show(SettingAutolist)
	require.NoError(t, err)
	assert.Equal(t, "autolist is on", line)
	line, err = s.Show(SettingListsize)
	require.NoError(t, err)
	assert.Equal(t, "listsize is 10", line)
	_, err = s.Show("nope")
	assert.True(t, errors.Is(err, ErrUnknownSetting))
}

func TestSettings_ResetAndPathStyle(t *testing.T) {
	t.Parallel()
	s := NewSettings()
	require.NoError(t, s.Set(SettingFullpath, "off"))
	require.NoError(t, s.Set(SettingBasename, "true"))
	assert.Equal(t, PathStyle{Basename: true, Dir: "/d"}, s.PathStyle("/d"))
	s.Reset()
	assert.Equal(t, PathStyle{Full: true, Dir: "/d"}, s.PathStyle("/d"))
}
