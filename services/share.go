// services/share.go - Share URLs and Short Links
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"biblereader/booknames"
	"biblereader/models"
	"biblereader/verseset"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareParams is what a shared reader URL carries in its query string.
type ShareParams struct {
	Book        string             `json:"book"`
	Chapter     int                `json:"chapter"`
	Translation string             `json:"translation"`
	Verses      verseset.Selection `json:"verses"`
}

// BuildShareURL appends book, chapter, translation and verses to base. With
// nothing selected there is nothing to share and base is returned as is.
func BuildShareURL(base string, p ShareParams) string {
	verses := verseset.Serialize(p.Verses)
	if verses == "" {
		return base
	}

	q := url.Values{}
	q.Set("book", p.Book)
	q.Set("chapter", strconv.Itoa(p.Chapter))
	q.Set("translation", p.Translation)
	q.Set("verses", verses)
	return base + "?" + q.Encode()
}

// ParseShareQuery reads the parameters of a shared URL. A missing or
// malformed chapter is reported as 0; malformed verse segments are dropped.
func ParseShareQuery(q url.Values) ShareParams {
	p := ShareParams{
		Book:        q.Get("book"),
		Translation: q.Get("translation"),
		Verses:      verseset.Deserialize(q.Get("verses")),
	}
	if ch, err := strconv.Atoi(strings.TrimSpace(q.Get("chapter"))); err == nil && ch > 0 {
		p.Chapter = ch
	}
	return p
}

// ShareLabel renders "<book> <chapter>:<verses> <translation>".
func ShareLabel(p ShareParams) string {
	translation := strings.ToUpper(strings.TrimSpace(p.Translation))
	return fmt.Sprintf("%s %d:%s %s", p.Book, p.Chapter, verseset.FormatRanges(p.Verses), translation)
}

type ShareService struct {
	db      *gorm.DB
	catalog *booknames.Catalog
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewShareService(db *gorm.DB, catalog *booknames.Catalog, baseURL string, ttl time.Duration) *ShareService {
	return &ShareService{
		db:      db,
		catalog: catalog,
		baseURL: strings.TrimRight(baseURL, "/"),
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// LongURL is the reader URL for p.
func (s *ShareService) LongURL(p ShareParams) string {
	return BuildShareURL(s.baseURL+"/", p)
}

// ShortURL is the redirecting link for a stored share.
func (s *ShareService) ShortURL(id string) string {
	return s.baseURL + "/s/" + id
}

// Create stores a short link. The book must be canonical, the chapter must
// exist and the selection must not be empty.
func (s *ShareService) Create(ctx context.Context, p ShareParams) (*models.ShareLink, error) {
	book, ok := s.catalog.Book(p.Book)
	if !ok {
		return nil, fmt.Errorf("%w: unknown book %q", ErrInvalidShareRequest, p.Book)
	}
	if p.Chapter < 1 || p.Chapter > book.Chapters {
		return nil, fmt.Errorf("%w: %s has no chapter %d", ErrInvalidShareRequest, p.Book, p.Chapter)
	}
	if p.Verses.IsEmpty() {
		return nil, fmt.Errorf("%w: no verses selected", ErrInvalidShareRequest)
	}
	if strings.TrimSpace(p.Translation) == "" {
		return nil, fmt.Errorf("%w: translation is required", ErrInvalidShareRequest)
	}

	link := &models.ShareLink{
		ID:          uuid.New().String(),
		Book:        p.Book,
		Chapter:     p.Chapter,
		Translation: strings.ToUpper(strings.TrimSpace(p.Translation)),
		Verses:      verseset.Serialize(p.Verses),
		ExpiresAt:   s.now().Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to store share link: %w", err)
	}
	return link, nil
}

// Resolve looks up a short link and counts the visit.
func (s *ShareService) Resolve(ctx context.Context, id string) (*models.ShareLink, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	var link models.ShareLink
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !link.ExpiresAt.After(s.now()) {
		return &link, ErrShareLinkExpired
	}

	s.db.WithContext(ctx).Model(&models.ShareLink{}).Where("id = ?", id).
		UpdateColumn("hits", gorm.Expr("hits + ?", 1))
	link.Hits++
	return &link, nil
}

// Params converts a stored link back to share parameters.
func (s *ShareService) Params(link *models.ShareLink) ShareParams {
	return ShareParams{
		Book:        link.Book,
		Chapter:     link.Chapter,
		Translation: link.Translation,
		Verses:      verseset.Deserialize(link.Verses),
	}
}

// PurgeExpired deletes links that expired before now.
func (s *ShareService) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.ShareLink{})
	return res.RowsAffected, res.Error
}

func (s *ShareService) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.ShareLink{}).Count(&n).Error
	return n, err
}
