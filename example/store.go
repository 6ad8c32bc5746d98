package example

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/ridge/must/v2"
)

const (
	postTable = "post"
	tagTable  = "tag"
)

// ErrPostNotFound is returned for operations on a post that does not exist
var ErrPostNotFound = errors.New("post not found")

// Post is a blog post
type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tag labels a post
type Tag struct {
	PostID int    `json:"postId"`
	Name   string `json:"name"`
}

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		postTable: {
			Name: postTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {Name: "id", Unique: true, Indexer: &memdb.IntFieldIndex{Field: "ID"}},
			},
		},
		tagTable: {
			Name: tagTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{Indexes: []memdb.Indexer{
						&memdb.IntFieldIndex{Field: "PostID"},
						&memdb.StringFieldIndex{Field: "Name"},
					}},
				},
				"post": {Name: "post", Indexer: &memdb.IntFieldIndex{Field: "PostID"}},
			},
		},
	},
}

// Store keeps posts and tags in memory
type Store struct {
	db *memdb.MemDB

	mu     sync.Mutex
	lastID int
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{db: must.OK1(memdb.NewMemDB(schema))}
}

// AllPosts returns all posts ordered by ID
func (s *Store) AllPosts(ctx context.Context) ([]*Post, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(postTable, "id")
	if err != nil {
		return nil, err
	}
	posts := []*Post{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		posts = append(posts, obj.(*Post))
	}
	slices.SortFunc(posts, func(a, b *Post) int { return cmp.Compare(a.ID, b.ID) })
	return posts, nil
}

// PostByID returns the post with the given ID, or nil if there is none
func (s *Store) PostByID(ctx context.Context, id int) (*Post, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	obj, err := txn.First(postTable, "id", id)
	if err != nil || obj == nil {
		return nil, err
	}
	return obj.(*Post), nil
}

// CreatePost stores a new post, assigning its ID
func (s *Store) CreatePost(ctx context.Context, p Post) (*Post, error) {
	s.mu.Lock()
	s.lastID++
	p.ID = s.lastID
	s.mu.Unlock()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert(postTable, &p); err != nil {
		return nil, err
	}
	txn.Commit()
	return &p, nil
}

// DeletePost removes a post with its tags. Returns false if there was no such
// post.
func (s *Store) DeletePost(ctx context.Context, id int) (bool, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	n, err := txn.DeleteAll(postTable, "id", id)
	if err != nil || n == 0 {
		return false, err
	}
	if _, err := txn.DeleteAll(tagTable, "post", id); err != nil {
		return false, err
	}
	txn.Commit()
	return true, nil
}

// TagsByPost returns the tags of a post ordered by name
func (s *Store) TagsByPost(ctx context.Context, postID int) ([]*Tag, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tagTable, "post", postID)
	if err != nil {
		return nil, err
	}
	tags := []*Tag{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		tags = append(tags, obj.(*Tag))
	}
	slices.SortFunc(tags, func(a, b *Tag) int { return cmp.Compare(a.Name, b.Name) })
	return tags, nil
}

// AddTag tags a post. Adding an existing tag is a no-op.
func (s *Store) AddTag(ctx context.Context, postID int, name string) (*Tag, error) {
	txn := s.db.Txn(true)
	defer txn.Abort()

	post, err := txn.First(postTable, "id", postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	tag := &Tag{PostID: postID, Name: name}
	if err := txn.Insert(tagTable, tag); err != nil {
		return nil, err
	}
	txn.Commit()
	return tag, nil
}

// Seed fills the store with sample data
func (s *Store) Seed(ctx context.Context) error {
	samples := []struct {
		post Post
		tags []string
	}{
		{Post{Title: "Hello", Body: "First post", Author: "demo"}, []string{"intro", "meta"}},
		{Post{Title: "Routing", Body: "Declarative routes", Author: "demo"}, []string{"http"}},
	}
	for _, sample := range samples {
		p, err := s.CreatePost(ctx, sample.post)
		if err != nil {
			return err
		}
		for _, tag := range sample.tags {
			if _, err := s.AddTag(ctx, p.ID, tag); err != nil {
				return err
			}
		}
	}
	return nil
}
