package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hotel_booking/internal/domain"
)

// Users keeps one slot per account, keyed by lowercased email.
type Users struct{ kv domain.KV }

func NewUsers(kv domain.KV) *Users { return &Users{kv: kv} }

func userKey(email string) string { return "user:" + strings.ToLower(strings.TrimSpace(email)) }

func (u *Users) Create(ctx context.Context, user domain.User) error {
	var taken bool
	err := u.kv.Update(ctx, userKey(user.Email), func(cur []byte) ([]byte, error) {
		if len(cur) > 0 {
			taken = true
			return nil, domain.ErrUnchanged
		}
		return json.Marshal(user)
	})
	if err != nil {
		return &domain.StorageError{Op: "create user", Err: err}
	}
	if taken {
		return domain.ErrEmailTaken
	}
	return nil
}

func (u *Users) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	raw, err := u.kv.Get(ctx, userKey(email))
	if err != nil {
		return domain.User{}, &domain.StorageError{Op: "get user", Err: err}
	}
	if len(raw) == 0 {
		return domain.User{}, domain.ErrNotFound
	}
	var out domain.User
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.User{}, &domain.StorageError{Op: "get user", Err: fmt.Errorf("decode: %w", err)}
	}
	return out, nil
}
