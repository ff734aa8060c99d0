package verification_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Jeffreasy/mimo-auth/internal/verification"
)

func TestStore_CheckCode_Match(t *testing.T) {
	s := verification.NewStore()
	s.PutCode("a@b.co", verification.WorkflowRegistration, "123456")

	assert.Equal(t, verification.CheckMatch, s.CheckCode("a@b.co", verification.WorkflowRegistration, "123456"))
	// Entry is gone after a match.
	assert.Equal(t, verification.CheckNotFound, s.CheckCode("a@b.co", verification.WorkflowRegistration, "123456"))
}

func TestStore_CheckCode_NotFound(t *testing.T) {
	s := verification.NewStore()
	assert.Equal(t, verification.CheckNotFound, s.CheckCode("nobody@b.co", verification.WorkflowRegistration, "000000"))
}

func TestStore_CheckCode_SixthAttemptCapsAndRemoves(t *testing.T) {
	s := verification.NewStore()
	s.PutCode("a@b.co", verification.WorkflowRegistration, "123456")

	for i := 0; i < 5; i++ {
		result := s.CheckCode("a@b.co", verification.WorkflowRegistration, "000000")
		assert.Equal(t, verification.CheckMismatch, result)
	}

	result := s.CheckCode("a@b.co", verification.WorkflowRegistration, "000000")
	assert.Equal(t, verification.CheckTooManyAttempts, result)

	// The entry is gone: even the correct code now reports not found.
	assert.Equal(t, verification.CheckNotFound, s.CheckCode("a@b.co", verification.WorkflowRegistration, "123456"))
}

func TestStore_PutCode_OverwritesPriorEntry(t *testing.T) {
	s := verification.NewStore()
	s.PutCode("a@b.co", verification.WorkflowRegistration, "111111")
	s.CheckCode("a@b.co", verification.WorkflowRegistration, "000000") // bump attempts to 1
	s.PutCode("a@b.co", verification.WorkflowRegistration, "222222")   // overwrite resets attempts

	assert.Equal(t, verification.CheckMismatch, s.CheckCode("a@b.co", verification.WorkflowRegistration, "111111"))
	assert.Equal(t, verification.CheckMatch, s.CheckCode("a@b.co", verification.WorkflowRegistration, "222222"))
}

func TestStore_ConsumeToken_SingleSuccessUnderConcurrency(t *testing.T) {
	s := verification.NewStore()
	s.PutToken("tok-1", "a@b.co")

	const n = 50
	var wg sync.WaitGroup
	var successes int64
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.ConsumeToken("tok-1", "a@b.co") == verification.TokenConsumed {
				atomic.AddInt64(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, successes)
}

func TestStore_ConsumeToken_AlreadyUsedStaysVisible(t *testing.T) {
	s := verification.NewStore()
	s.PutToken("tok-1", "a@b.co")

	assert.Equal(t, verification.TokenConsumed, s.ConsumeToken("tok-1", "a@b.co"))
	assert.Equal(t, verification.TokenAlreadyUsed, s.ConsumeToken("tok-1", "a@b.co"))
}

func TestStore_ConsumeToken_EmailMismatch(t *testing.T) {
	s := verification.NewStore()
	s.PutToken("tok-1", "a@b.co")

	assert.Equal(t, verification.TokenEmailMismatch, s.ConsumeToken("tok-1", "someone-else@b.co"))
	// The entry survives a mismatch and can still be consumed by the right email.
	assert.Equal(t, verification.TokenConsumed, s.ConsumeToken("tok-1", "a@b.co"))
}

func TestStore_Invalidate_RemovesRegardlessOfState(t *testing.T) {
	s := verification.NewStore()
	s.PutToken("tok-1", "a@b.co")
	s.ConsumeToken("tok-1", "a@b.co")
	s.Invalidate("tok-1")

	assert.Equal(t, verification.TokenNotFound, s.ConsumeToken("tok-1", "a@b.co"))
}
