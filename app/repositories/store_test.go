package repositories_test

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"inkpost/app/models"
	"inkpost/app/repositories"
	"inkpost/app/repositories/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) repositories.Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"badger": func(t *testing.T) repositories.Store {
			store, err := repositories.Open("badger:memory", false)
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })
			return store
		},
		"sqlite": func(t *testing.T) repositories.Store {
			path := filepath.Join(t.TempDir(), "test.db")
			store, err := repositories.Open("sqlite:"+path, false)
			require.NoError(t, err)
			t.Cleanup(func() { store.Close() })
			return store
		},
		"mock": func(t *testing.T) repositories.Store {
			return mock.NewStore()
		},
	}
}

func createUser(t *testing.T, store repositories.Store, email string) *models.User {
	user := &models.User{Email: email, Name: "User " + email, PasswordHash: "hash"}
	require.NoError(t, store.Update(func(tx repositories.Tx) error {
		return tx.Users().Create(user)
	}))
	return user
}

func createPost(t *testing.T, store repositories.Store, title string, authorID int) *models.Post {
	post := &models.Post{
		Title:    title,
		Subtitle: "Subtitle",
		Body:     "Body",
		ImgURL:   "https://example.com/a.png",
		Date:     "March 01, 2024",
		AuthorID: authorID,
	}
	require.NoError(t, store.Update(func(tx repositories.Tx) error {
		return tx.Posts().Create(post)
	}))
	return post
}

func count(t *testing.T, store repositories.Store, table string) int {
	var n int
	require.NoError(t, store.View(func(tx repositories.Tx) error {
		var err error
		switch table {
		case "users":
			n, err = tx.Users().Count()
		case "posts":
			n, err = tx.Posts().Count()
		case "comments":
			n, err = tx.Comments().Count()
		}
		return err
	}))
	return n
}

func TestUserRepository(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			t.Run("create assigns sequential ids", func(t *testing.T) {
				first := createUser(t, store, "first@x.com")
				second := createUser(t, store, "second@x.com")
				assert.Equal(t, 1, first.ID)
				assert.Equal(t, 2, second.ID)
			})

			t.Run("duplicate email is rejected", func(t *testing.T) {
				err := store.Update(func(tx repositories.Tx) error {
					return tx.Users().Create(&models.User{Email: "FIRST@x.com", Name: "Other", PasswordHash: "other"})
				})
				assert.ErrorIs(t, err, repositories.ErrDuplicate)
				assert.Equal(t, 2, count(t, store, "users"))

				var existing *models.User
				require.NoError(t, store.View(func(tx repositories.Tx) error {
					var err error
					existing, err = tx.Users().GetByEmail("first@x.com")
					return err
				}))
				assert.Equal(t, "hash", existing.PasswordHash)
			})

			t.Run("failed unit of work leaves no rows", func(t *testing.T) {
				err := store.Update(func(tx repositories.Tx) error {
					if err := tx.Users().Create(&models.User{Email: "ghost@x.com", Name: "Ghost", PasswordHash: "h"}); err != nil {
						return err
					}
					return assert.AnError
				})
				assert.ErrorIs(t, err, assert.AnError)
				assert.Equal(t, 2, count(t, store, "users"))
			})

			t.Run("lookup", func(t *testing.T) {
				require.NoError(t, store.View(func(tx repositories.Tx) error {
					user, err := tx.Users().GetByEmail(" Second@X.com ")
					require.NoError(t, err)
					assert.Equal(t, 2, user.ID)

					user, err = tx.Users().GetByID(1)
					require.NoError(t, err)
					assert.Equal(t, "first@x.com", user.Email)

					_, err = tx.Users().GetByID(99)
					assert.ErrorIs(t, err, repositories.ErrNotFound)

					_, err = tx.Users().GetByEmail("nobody@x.com")
					assert.ErrorIs(t, err, repositories.ErrNotFound)
					return nil
				}))
			})
		})
	}
}

func TestPostRepository(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			author := createUser(t, store, "admin@x.com")

			t.Run("unknown author is rejected", func(t *testing.T) {
				err := store.Update(func(tx repositories.Tx) error {
					return tx.Posts().Create(&models.Post{Title: "Orphan", AuthorID: 99, Date: "d", Body: "b", Subtitle: "s", ImgURL: "https://x"})
				})
				assert.ErrorIs(t, err, repositories.ErrInvalidReference)
				assert.Equal(t, 0, count(t, store, "posts"))
			})

			t.Run("duplicate title is rejected", func(t *testing.T) {
				createPost(t, store, "Hello", author.ID)
				err := store.Update(func(tx repositories.Tx) error {
					return tx.Posts().Create(&models.Post{Title: "Hello", AuthorID: author.ID, Date: "d", Body: "b", Subtitle: "s", ImgURL: "https://x"})
				})
				assert.ErrorIs(t, err, repositories.ErrDuplicate)
				assert.Equal(t, 1, count(t, store, "posts"))
			})

			t.Run("list is ordered by id", func(t *testing.T) {
				for i := 0; i < 11; i++ {
					createPost(t, store, fmt.Sprintf("Post %d", i), author.ID)
				}
				var posts []*models.Post
				require.NoError(t, store.View(func(tx repositories.Tx) error {
					var err error
					posts, err = tx.Posts().List()
					return err
				}))
				require.Len(t, posts, 12)
				for i := 1; i < len(posts); i++ {
					assert.Less(t, posts[i-1].ID, posts[i].ID)
				}
				assert.Equal(t, "Hello", posts[0].Title)
			})

			t.Run("update moves the title", func(t *testing.T) {
				post := createPost(t, store, "Draft", author.ID)
				post.Title = "Published"
				post.Body = "New body"
				require.NoError(t, store.Update(func(tx repositories.Tx) error {
					return tx.Posts().Update(post)
				}))

				require.NoError(t, store.View(func(tx repositories.Tx) error {
					_, err := tx.Posts().GetByTitle("Draft")
					assert.ErrorIs(t, err, repositories.ErrNotFound)

					updated, err := tx.Posts().GetByTitle("Published")
					require.NoError(t, err)
					assert.Equal(t, post.ID, updated.ID)
					assert.Equal(t, "New body", updated.Body)
					return nil
				}))

				// the old title is free again
				createPost(t, store, "Draft", author.ID)
			})

			t.Run("update to a taken title is rejected", func(t *testing.T) {
				post := createPost(t, store, "Unique", author.ID)
				post.Title = "Hello"
				err := store.Update(func(tx repositories.Tx) error {
					return tx.Posts().Update(post)
				})
				assert.ErrorIs(t, err, repositories.ErrDuplicate)
			})

			t.Run("update missing post", func(t *testing.T) {
				err := store.Update(func(tx repositories.Tx) error {
					return tx.Posts().Update(&models.Post{ID: 999, Title: "Nope", AuthorID: author.ID})
				})
				assert.ErrorIs(t, err, repositories.ErrNotFound)
			})

			t.Run("delete cascades to comments", func(t *testing.T) {
				post := createPost(t, store, "Doomed", author.ID)
				other := createPost(t, store, "Survivor", author.ID)
				require.NoError(t, store.Update(func(tx repositories.Tx) error {
					for _, pid := range []int{post.ID, post.ID, other.ID} {
						if err := tx.Comments().Create(&models.Comment{Text: "c", AuthorID: author.ID, PostID: pid}); err != nil {
							return err
						}
					}
					return nil
				}))
				require.Equal(t, 3, count(t, store, "comments"))

				require.NoError(t, store.Update(func(tx repositories.Tx) error {
					return tx.Posts().Delete(post.ID)
				}))
				assert.Equal(t, 1, count(t, store, "comments"))

				require.NoError(t, store.View(func(tx repositories.Tx) error {
					_, err := tx.Posts().GetByID(post.ID)
					assert.ErrorIs(t, err, repositories.ErrNotFound)
					_, err = tx.Posts().GetByTitle("Doomed")
					assert.ErrorIs(t, err, repositories.ErrNotFound)
					return nil
				}))
			})

			t.Run("delete missing post", func(t *testing.T) {
				before := count(t, store, "posts")
				err := store.Update(func(tx repositories.Tx) error {
					return tx.Posts().Delete(999)
				})
				assert.ErrorIs(t, err, repositories.ErrNotFound)
				assert.Equal(t, before, count(t, store, "posts"))
			})

			t.Run("ids are not reused", func(t *testing.T) {
				post := createPost(t, store, "Temporary", author.ID)
				require.NoError(t, store.Update(func(tx repositories.Tx) error {
					return tx.Posts().Delete(post.ID)
				}))
				next := createPost(t, store, "Next", author.ID)
				assert.Greater(t, next.ID, post.ID)
			})
		})
	}
}

func TestCommentRepository(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			store := open(t)
			author := createUser(t, store, "admin@x.com")
			post := createPost(t, store, "Hello", author.ID)

			t.Run("references must exist", func(t *testing.T) {
				err := store.Update(func(tx repositories.Tx) error {
					return tx.Comments().Create(&models.Comment{Text: "c", AuthorID: author.ID, PostID: 42})
				})
				assert.ErrorIs(t, err, repositories.ErrInvalidReference)

				err = store.Update(func(tx repositories.Tx) error {
					return tx.Comments().Create(&models.Comment{Text: "c", AuthorID: 42, PostID: post.ID})
				})
				assert.ErrorIs(t, err, repositories.ErrInvalidReference)
				assert.Equal(t, 0, count(t, store, "comments"))
			})

			t.Run("list by post", func(t *testing.T) {
				require.NoError(t, store.Update(func(tx repositories.Tx) error {
					for _, text := range []string{"one", "two", "three"} {
						if err := tx.Comments().Create(&models.Comment{Text: text, AuthorID: author.ID, PostID: post.ID}); err != nil {
							return err
						}
					}
					return nil
				}))

				var comments []*models.Comment
				require.NoError(t, store.View(func(tx repositories.Tx) error {
					var err error
					comments, err = tx.Comments().ListByPost(post.ID)
					return err
				}))
				require.Len(t, comments, 3)
				assert.Equal(t, "one", comments[0].Text)
				assert.Equal(t, "three", comments[2].Text)
				for _, c := range comments {
					assert.Equal(t, author.ID, c.AuthorID)
					assert.Equal(t, post.ID, c.PostID)
				}
			})
		})
	}
}

func TestConcurrentRegistrationSameEmail(t *testing.T) {
	for name, open := range backends() {
		if name == "sqlite" {
			// SQLite serializes writers, covered by the duplicate email test.
			continue
		}
		t.Run(name, func(t *testing.T) {
			store := open(t)

			var wg sync.WaitGroup
			errs := make([]error, 8)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					errs[i] = store.Update(func(tx repositories.Tx) error {
						if _, err := tx.Users().GetByEmail("race@x.com"); err == nil {
							return repositories.ErrDuplicate
						}
						return tx.Users().Create(&models.User{Email: "race@x.com", Name: "Racer", PasswordHash: "h"})
					})
				}(i)
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
				} else {
					assert.True(t, errorsIsAny(err, repositories.ErrDuplicate, repositories.ErrConflict), "unexpected error %v", err)
				}
			}
			assert.Equal(t, 1, succeeded)
			assert.Equal(t, 1, count(t, store, "users"))
		})
	}
}

func TestSingleAdminIndex(t *testing.T) {
	store := backends()["sqlite"](t)

	admin := &models.User{Email: "a@x.com", Name: "Admin", PasswordHash: "h", IsAdmin: true}
	require.NoError(t, store.Update(func(tx repositories.Tx) error {
		return tx.Users().Create(admin)
	}))

	err := store.Update(func(tx repositories.Tx) error {
		return tx.Users().Create(&models.User{Email: "b@x.com", Name: "Other", PasswordHash: "h", IsAdmin: true})
	})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	require.NoError(t, store.Update(func(tx repositories.Tx) error {
		return tx.Users().Create(&models.User{Email: "c@x.com", Name: "Reader", PasswordHash: "h"})
	}))
	assert.Equal(t, 2, count(t, store, "users"))
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		dsn      string
		backend  string
		location string
		wantErr  bool
	}{
		{dsn: "badger:data/badger", backend: repositories.BackendBadger, location: "data/badger"},
		{dsn: "badger://data/badger", backend: repositories.BackendBadger, location: "data/badger"},
		{dsn: "badger:memory", backend: repositories.BackendBadger, location: "memory"},
		{dsn: "sqlite:posts.db", backend: repositories.BackendSQLite, location: "posts.db"},
		{dsn: "sqlite:///posts.db", backend: repositories.BackendSQLite, location: "posts.db"},
		{dsn: "sqlite:///var/lib/posts.db", backend: repositories.BackendSQLite, location: "var/lib/posts.db"},
		{dsn: "sqlite:////var/lib/posts.db", backend: repositories.BackendSQLite, location: "/var/lib/posts.db"},
		{dsn: "sqlite:///", wantErr: true},
		{dsn: "postgres://u:p@localhost/blog", backend: repositories.BackendPostgres, location: "postgres://u:p@localhost/blog"},
		{dsn: "postgresql://localhost/blog", backend: repositories.BackendPostgres, location: "postgresql://localhost/blog"},
		{dsn: "badger:", wantErr: true},
		{dsn: "mysql://localhost/blog", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			backend, location, err := repositories.ParseDatabaseURL(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.backend, backend)
			assert.Equal(t, tt.location, location)
		})
	}
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
