package sigs

import (
	"testing"

	"github.com/iov-one/nftmarket/errors"
	"github.com/iov-one/nftmarket/store"
	"github.com/iov-one/nftmarket/weavetest"
	"github.com/iov-one/nftmarket/weavetest/assert"
)

func TestCheckAndIncrementSequence(t *testing.T) {
	alice := weavetest.NewCondition().Address()
	bob := weavetest.NewCondition().Address()

	db := store.MemStore()
	ctrl := NewController()

	seq, err := ctrl.NextSequence(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), seq)

	assert.Nil(t, ctrl.CheckAndIncrementSequence(db, alice, 0))
	assert.Nil(t, ctrl.CheckAndIncrementSequence(db, alice, 1))

	// A consumed sequence cannot be used again.
	err = ctrl.CheckAndIncrementSequence(db, alice, 1)
	assert.IsErr(t, ErrInvalidSequence, err)
	// Nor can a sequence be skipped.
	err = ctrl.CheckAndIncrementSequence(db, alice, 5)
	assert.IsErr(t, ErrInvalidSequence, err)

	seq, err = ctrl.NextSequence(db, alice)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), seq)

	// Sequences are kept per signer.
	seq, err = ctrl.NextSequence(db, bob)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), seq)

	err = ctrl.CheckAndIncrementSequence(db, nil, 0)
	assert.IsErr(t, errors.ErrEmpty, err)
}

func TestUserDataSequence(t *testing.T) {
	cases := map[string]struct {
		user     UserData
		expected int64
		wantErr  *errors.Error
		wantSeq  int64
	}{
		"first use": {
			expected: 0,
			wantSeq:  1,
		},
		"matching sequence": {
			user:     UserData{Sequence: 41},
			expected: 41,
			wantSeq:  42,
		},
		"old sequence": {
			user:     UserData{Sequence: 41},
			expected: 40,
			wantErr:  ErrInvalidSequence,
			wantSeq:  41,
		},
		"negative sequence": {
			expected: -1,
			wantErr:  ErrInvalidSequence,
		},
		"exhausted": {
			user:     UserData{Sequence: maxSequence},
			expected: maxSequence,
			wantErr:  ErrInvalidSequence,
			wantSeq:  maxSequence,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			u := tc.user
			err := u.CheckAndIncrementSequence(tc.expected)
			assert.IsErr(t, tc.wantErr, err)
			assert.Equal(t, tc.wantSeq, u.Sequence)
			assert.Nil(t, u.Validate())
		})
	}

	u := UserData{Sequence: -1}
	assert.FieldError(t, u.Validate(), "Sequence", ErrInvalidSequence)
}
