package repositories

import (
	"fmt"

	"inkpost/app/models"

	"github.com/dgraph-io/badger/v4"
)

// BadgerUserRepository implements UserRepository using BadgerDB
type BadgerUserRepository struct {
	txn *badger.Txn
}

// Create inserts a new user. The email must not be in use.
func (r *BadgerUserRepository) Create(user *models.User) error {
	user.BeforeCreate()

	idx := userEmailKey(user.Email)
	taken, err := keyExists(r.txn, idx)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("email %q: %w", user.Email, ErrDuplicate)
	}

	id, err := getNextID(r.txn, UserSeqKey)
	if err != nil {
		return err
	}
	user.ID = id

	if err := putEntity(r.txn, userKey(id), user); err != nil {
		return err
	}
	return r.txn.Set(idx, encodeID(id))
}

// GetByID retrieves a user by ID
func (r *BadgerUserRepository) GetByID(id int) (*models.User, error) {
	var user models.User
	if err := getEntity(r.txn, userKey(id), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user through the email index
func (r *BadgerUserRepository) GetByEmail(email string) (*models.User, error) {
	id, err := getIndex(r.txn, userEmailKey(models.NormalizeEmail(email)))
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

func (r *BadgerUserRepository) Count() (int, error) {
	return countPrefix(r.txn, []byte(UserKeyPrefix))
}
