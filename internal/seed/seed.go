package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumStaff        int
	NumPosts        int
	CommentsPerPost int
	// ReplyPercent is the chance, 0-100, that a comment gets one reply.
	ReplyPercent int
	ShouldClean  bool
	Factory      FactoryOptions
}

// Result counts the rows a Seed run created.
type Result struct {
	Users    int
	Posts    int
	Comments int
	Replies  int
}

// Seed populates the database with demo users, posts and comments. The first
// NumStaff users are staff. Rows are written directly, so no moderation runs.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	if opts.NumUsers <= 0 && opts.NumPosts > 0 {
		return nil, errors.New("seed: posts need at least one user")
	}
	log.Printf("🌱 Seeding %d users (%d staff), %d posts, %d comments per post",
		opts.NumUsers, opts.NumStaff, opts.NumPosts, opts.CommentsPerPost)

	db = db.WithContext(ctx)
	if opts.ShouldClean {
		if err := ClearData(db); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f := NewFactory(db, opts.Factory)
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		staff := i < opts.NumStaff
		user, err := f.CreateUser(func(u *models.User) { u.IsStaff = staff })
		if err != nil {
			return res, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	res.Users = len(users)
	log.Printf("✓ %d users created", res.Users)

	for i := 0; i < opts.NumPosts; i++ {
		post, err := f.CreatePost(pick(f, users))
		if err != nil {
			return res, fmt.Errorf("create post: %w", err)
		}
		res.Posts++

		for j := 0; j < opts.CommentsPerPost; j++ {
			comment, err := f.CreateComment(pick(f, users), post)
			if err != nil {
				return res, fmt.Errorf("create comment: %w", err)
			}
			res.Comments++

			if opts.ReplyPercent > 0 && f.fake.Number(1, 100) <= opts.ReplyPercent {
				if _, err := f.CreateReply(pick(f, users), comment); err != nil {
					return res, fmt.Errorf("create reply: %w", err)
				}
				res.Replies++
			}
		}
	}
	log.Printf("✓ %d posts, %d comments, %d replies created", res.Posts, res.Comments, res.Replies)

	return res, nil
}

// ClearData removes every user, post and comment. Postgres also resets the
// id sequences.
func ClearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE comments, posts, users RESTART IDENTITY CASCADE`).Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"comments", "posts", "users"} {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
