package session

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUserIDFormat(t *testing.T) {
	re := regexp.MustCompile(`^user_[0-9a-z]{9}$`)
	for i := 0; i < 50; i++ {
		assert.Regexp(t, re, NewUserID())
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := New()
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Speeches)

	s.StartSpeech("s1", "r1")
	s.StartSpeech("s1", "r1")
	assert.Equal(t, []string{"s1"}, s.Speeches)
	assert.Equal(t, "s1", s.CurrentSpeech)
	assert.Equal(t, "r1", s.CurrentRehearsal)

	s.StartRehearsal("s1", "r2")
	assert.Equal(t, "r2", s.CurrentRehearsal)

	t.Run("clear keeps speech when it survives", func(t *testing.T) {
		c := *s
		c.Speeches = append([]string{}, s.Speeches...)
		c.Clear(false)
		assert.Equal(t, []string{"s1"}, c.Speeches)
		assert.Empty(t, c.CurrentSpeech)
		assert.Empty(t, c.CurrentRehearsal)
	})

	t.Run("clear drops deleted speech", func(t *testing.T) {
		c := *s
		c.Speeches = append([]string{}, s.Speeches...)
		c.Clear(true)
		assert.Empty(t, c.Speeches)
	})
}

func TestForget(t *testing.T) {
	s := &Session{Speeches: []string{"a", "b"}, CurrentSpeech: "b", CurrentRehearsal: "r"}
	s.Forget("b")
	assert.Equal(t, []string{"a"}, s.Speeches)
	assert.Empty(t, s.CurrentRehearsal)
}

func TestViewIsResetByStartAndForget(t *testing.T) {
	s := &Session{Speeches: []string{"s1"}, CurrentSpeech: "s1"}
	s.View("r0")
	assert.Equal(t, "r0", s.ViewedRehearsal)
	assert.Empty(t, s.CurrentRehearsal)

	s.StartRehearsal("s1", "r1")
	assert.Empty(t, s.ViewedRehearsal)

	s.View("r0")
	s.Forget("s1")
	assert.Empty(t, s.ViewedRehearsal)
	assert.Empty(t, s.CurrentSpeech)
}
