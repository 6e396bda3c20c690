//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=../mocks/mock_profile_repository.go -package=mocks
package repositories

import (
	"errors"

	"member-hub/domain"
	apperrors "member-hub/errors"

	"github.com/dgraph-io/badger/v4"
)

// IProfileRepository is the primary profile store: a point lookup by
// participant id. A missing entry is normal; the identity resolver falls
// back to the membership directory.
type IProfileRepository interface {
	Get(participantID string) (domain.ParticipantProfile, error)
	Put(profile domain.ParticipantProfile) error
}

type ProfileRepository struct {
	db    *badger.DB
	codec codec
}

func NewProfileRepository(db *badger.DB) *ProfileRepository {
	return &ProfileRepository{db: db, codec: newCodec()}
}

func (r *ProfileRepository) Get(participantID string) (domain.ParticipantProfile, error) {
	var sp storedProfile
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(participantID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return apperrors.ErrProfileNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return r.codec.decode(val, &sp)
		})
	})
	if err != nil {
		return domain.ParticipantProfile{}, err
	}
	return toProfile(sp), nil
}

func (r *ProfileRepository) Put(profile domain.ParticipantProfile) error {
	data, err := r.codec.encode(fromProfile(profile))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(profile.ID), data)
	})
}
