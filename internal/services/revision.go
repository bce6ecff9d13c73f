package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor identifies who made a change.
type Actor struct {
	UserID   *uint
	Username string
}

// Name returns the username or "changed_user" for anonymous changes.
func (a *Actor) Name() string {
	if a == nil || a.Username == "" {
		return "changed_user"
	}
	return a.Username
}

func (a *Actor) userID() *uint {
	if a == nil {
		return nil
	}
	return a.UserID
}

// Fields that change on every save and say nothing about the edit.
var volatileFields = map[string]bool{
	"updated_on":       true,
	"created_on":       true,
	"current_revision": true,
}

type RevisionService struct {
	db *gorm.DB
}

func NewRevisionService(db *gorm.DB) *RevisionService {
	return &RevisionService{db: db}
}

// Record snapshots obj as a new revision using tx.
func (s *RevisionService) Record(tx *gorm.DB, obj models.Versioned, actor *Actor, comment string) (*models.Revision, error) {
	objectType, id := obj.RevisionKey()
	snapshot, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s %d: %w", objectType, id, err)
	}
	rev := &models.Revision{
		ObjectType: objectType,
		ObjectID:   id,
		ObjectRepr: truncate(obj.String(), 255),
		Snapshot:   datatypes.JSON(snapshot),
		UserID:     actor.userID(),
		Username:   actor.Name(),
		Comment:    comment,
		CreatedAt:  time.Now(),
	}
	if err := tx.Create(rev).Error; err != nil {
		return nil, err
	}
	return rev, nil
}

// List returns revisions of one object, newest first.
func (s *RevisionService) List(objectType string, objectID uint) ([]models.Revision, error) {
	var revs []models.Revision
	err := s.db.Where("object_type = ? AND object_id = ?", objectType, objectID).
		Order("id DESC").Find(&revs).Error
	return revs, err
}

func (s *RevisionService) GetByID(id uint) (*models.Revision, error) {
	var rev models.Revision
	if err := s.db.First(&rev, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("revision not found")
		}
		return nil, err
	}
	return &rev, nil
}

// FieldDiff is one changed field between two snapshots.
type FieldDiff struct {
	Field string      `json:"field"`
	From  interface{} `json:"from"`
	To    interface{} `json:"to"`
}

// RevisionComparison describes the differences from one revision to another.
type RevisionComparison struct {
	From    models.Revision `json:"from"`
	To      models.Revision `json:"to"`
	Changes []FieldDiff     `json:"changes"`
}

// Compare diffs revision id against otherID, or against the latest revision
// of the same object when otherID is 0.
func (s *RevisionService) Compare(id, otherID uint) (*RevisionComparison, error) {
	from, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	var to *models.Revision
	if otherID == 0 {
		var latest models.Revision
		if err := s.db.Where("object_type = ? AND object_id = ?", from.ObjectType, from.ObjectID).
			Order("id DESC").First(&latest).Error; err != nil {
			return nil, err
		}
		to = &latest
	} else {
		if to, err = s.GetByID(otherID); err != nil {
			return nil, err
		}
		if to.ObjectType != from.ObjectType || to.ObjectID != from.ObjectID {
			return nil, response.NewBadRequest("revisions belong to different objects")
		}
	}

	changes, err := DiffSnapshots(from.Snapshot, to.Snapshot)
	if err != nil {
		return nil, err
	}
	return &RevisionComparison{From: *from, To: *to, Changes: changes}, nil
}

// DiffSnapshots returns the fields whose values differ, sorted by name.
func DiffSnapshots(a, b []byte) ([]FieldDiff, error) {
	var left, right map[string]interface{}
	if err := json.Unmarshal(a, &left); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := json.Unmarshal(b, &right); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	keys := map[string]bool{}
	for k := range left {
		keys[k] = true
	}
	for k := range right {
		keys[k] = true
	}

	var diffs []FieldDiff
	for k := range keys {
		if volatileFields[k] {
			continue
		}
		if !reflect.DeepEqual(left[k], right[k]) {
			diffs = append(diffs, FieldDiff{Field: k, From: left[k], To: right[k]})
		}
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Field < diffs[j].Field })
	return diffs, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
