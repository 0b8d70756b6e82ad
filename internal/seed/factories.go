// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"time"

	"inkwell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the plaintext password given to every seeded user.
const DefaultPassword = "password123"

// FactoryOptions tunes how a Factory generates rows.
type FactoryOptions struct {
	// MaxDays bounds how far back created_at timestamps are spread.
	MaxDays int
	// SkipBcrypt hashes with bcrypt.MinCost instead of the default cost.
	SkipBcrypt bool
	// RandSeed makes generated content reproducible when non-zero.
	RandSeed int64
	Password string
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts FactoryOptions
	fake *gofakeit.Faker
	now  func() time.Time

	passwordHash string
	seq          int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 30
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:   db,
		opts: opts,
		fake: gofakeit.New(seed),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (f *Factory) password() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(f.opts.Password), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.passwordHash = string(hash)
	return f.passwordHash, nil
}

// pastTime returns a random instant within the last MaxDays.
func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.fake.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return f.now().Add(-back)
}

// after returns a random instant between t and now.
func (f *Factory) after(t time.Time) time.Time {
	span := f.now().Sub(t)
	if span <= 0 {
		return t
	}
	minutes := int(span / time.Minute)
	return t.Add(time.Duration(f.fake.Number(0, minutes)) * time.Minute)
}

// CreateUser persists an active user whose password is the factory password.
// Usernames and emails carry a counter so repeated calls never collide.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.password()
	if err != nil {
		return nil, err
	}
	f.seq++
	name := fmt.Sprintf("%s%d", f.fake.Username(), f.seq)
	user := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: hash,
		IsActive: true,
	}
	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a post by author. Roughly a third of posts get
// auto-reply enabled with a short delay.
func (f *Factory) CreatePost(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Title:     f.fake.Sentence(5),
		Content:   f.fake.Paragraph(1, 3, 12, "\n\n"),
		AuthorID:  author.ID,
		CreatedAt: f.pastTime(),
	}
	if f.fake.Number(0, 2) == 0 {
		post.AutoReplyEnabled = true
		post.AutoReplyDelay = f.fake.Number(1, 10) * 60
	}
	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a top-level comment by author on post, dated
// somewhere between the post and now.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Text:      f.fake.Sentence(12),
		AuthorID:  author.ID,
		PostID:    post.ID,
		CreatedAt: f.after(post.CreatedAt),
	}
	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReply persists a reply by author to parent on the parent's post.
func (f *Factory) CreateReply(author *models.User, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	parentID := parent.ID
	reply := &models.Comment{
		Text:      f.fake.Sentence(8),
		AuthorID:  author.ID,
		PostID:    parent.PostID,
		ParentID:  &parentID,
		CreatedAt: f.after(parent.CreatedAt),
	}
	for _, override := range overrides {
		override(reply)
	}

	if err := f.db.Create(reply).Error; err != nil {
		return nil, err
	}
	return reply, nil
}

// pick returns a random element of items.
func pick[T any](f *Factory, items []T) T {
	return items[f.fake.Number(0, len(items)-1)]
}
