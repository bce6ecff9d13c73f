package services

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report the json names so errors match the request fields
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct checks validate tags and returns the first failure as a
// field error.
func validateStruct(obj interface{}) error {
	err := structValidator.Struct(obj)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return requiredField(fe.Field())
	case "email":
		return response.NewFieldError(fe.Field(), "Enter a valid email address.")
	default:
		return response.NewFieldError(fe.Field(), fe.Error())
	}
}

// reference is a column pointing at a catalog row, nulled before the row is
// deleted.
type reference struct {
	model  interface{}
	column string
}

// CatalogService is the CRUD service shared by the small lookup tables:
// system types, statuses, server models, operating systems and locations.
type CatalogService[T any] struct {
	db        *gorm.DB
	revisions *RevisionService
	name      string
	lookup    []string
	search    []string
	order     string
	refs      []reference
}

func NewSystemTypeService(db *gorm.DB, revisions *RevisionService) *CatalogService[models.SystemType] {
	return &CatalogService[models.SystemType]{
		db: db, revisions: revisions, name: "system type",
		lookup: []string{"id", "type_name"},
		search: []string{"type_name"},
		order:  "type_name",
		refs:   []reference{{&models.System{}, "system_type_id"}},
	}
}

func NewSystemStatusService(db *gorm.DB, revisions *RevisionService) *CatalogService[models.SystemStatus] {
	return &CatalogService[models.SystemStatus]{
		db: db, revisions: revisions, name: "system status",
		lookup: []string{"id", "status"},
		search: []string{"status"},
		order:  "status",
		refs:   []reference{{&models.System{}, "system_status_id"}},
	}
}

func NewServerModelService(db *gorm.DB, revisions *RevisionService) *CatalogService[models.ServerModel] {
	return &CatalogService[models.ServerModel]{
		db: db, revisions: revisions, name: "server model",
		lookup: []string{"id", "vendor", "model"},
		search: []string{"vendor", "model", "part_number"},
		order:  "id",
		refs: []reference{
			{&models.System{}, "server_model_id"},
			{&models.UnmanagedSystem{}, "server_model_id"},
		},
	}
}

func NewOperatingSystemService(db *gorm.DB, revisions *RevisionService) *CatalogService[models.OperatingSystem] {
	return &CatalogService[models.OperatingSystem]{
		db: db, revisions: revisions, name: "operating system",
		lookup: []string{"id", "name", "version"},
		search: []string{"name", "version"},
		order:  "name, version",
		refs: []reference{
			{&models.System{}, "operating_system_id"},
			{&models.UnmanagedSystem{}, "operating_system_id"},
		},
	}
}

func NewLocationService(db *gorm.DB, revisions *RevisionService) *CatalogService[models.Location] {
	return &CatalogService[models.Location]{
		db: db, revisions: revisions, name: "location",
		lookup: []string{"id", "name"},
		search: []string{"name", "address"},
		order:  "name",
		refs:   []reference{{&models.SystemRack{}, "location_id"}},
	}
}

// Name is the human readable entity name, e.g. "server model".
func (s *CatalogService[T]) Name() string { return s.name }

func (s *CatalogService[T]) List(search string) ([]T, error) {
	query := s.db.Model(new(T))
	if search != "" && len(s.search) > 0 {
		like := LikeContains(search)
		conds := make([]string, 0, len(s.search))
		args := make([]interface{}, 0, len(s.search))
		for _, field := range s.search {
			conds = append(conds, likeExpr(field))
			args = append(args, like)
		}
		query = query.Where(strings.Join(conds, " OR "), args...)
	}
	var items []T
	if err := query.Order(s.order).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Get tries each lookup field in order.
func (s *CatalogService[T]) Get(lookup string) (*T, error) {
	item := new(T)
	found, err := findByLookupFields(s.db, item, lookup, s.lookup...)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, response.NewNotFound(s.name + " not found")
	}
	return item, nil
}

// Create decodes a new row from a JSON body.
func (s *CatalogService[T]) Create(body []byte, actor *Actor) (*T, error) {
	item := new(T)
	if err := json.Unmarshal(body, item); err != nil {
		return nil, response.NewBadRequest("invalid request body: " + err.Error())
	}
	setID(item, 0)
	if err := s.save(item, actor, "created", true); err != nil {
		return nil, err
	}
	return item, nil
}

// Update applies the fields present in body onto an existing row.
func (s *CatalogService[T]) Update(lookup string, body []byte, actor *Actor) (*T, error) {
	item, err := s.Get(lookup)
	if err != nil {
		return nil, err
	}
	id := getID(item)
	if err := json.Unmarshal(body, item); err != nil {
		return nil, response.NewBadRequest("invalid request body: " + err.Error())
	}
	setID(item, id)
	if err := s.save(item, actor, "updated", false); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CatalogService[T]) save(item *T, actor *Actor, comment string, isNew bool) error {
	if err := validateStruct(item); err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if isNew {
			err = tx.Create(item).Error
		} else {
			err = tx.Save(item).Error
		}
		if err != nil {
			if models.IsDuplicateError(err) {
				return response.NewBadRequest(capitalize(s.name) + " already exists.")
			}
			return err
		}
		if v, ok := any(item).(models.Versioned); ok && s.revisions != nil {
			if _, err := s.revisions.Record(tx, v, actor, comment); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete nulls the references to the row and removes it.
func (s *CatalogService[T]) Delete(lookup string) error {
	item, err := s.Get(lookup)
	if err != nil {
		return err
	}
	id := getID(item)
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, ref := range s.refs {
			if err := tx.Model(ref.model).Where(ref.column+" = ?", id).Update(ref.column, nil).Error; err != nil {
				return err
			}
		}
		return tx.Delete(new(T), id).Error
	})
}

// Revisions lists the saved revisions of a versioned catalog row.
func (s *CatalogService[T]) Revisions(lookup string) ([]models.Revision, error) {
	item, err := s.Get(lookup)
	if err != nil {
		return nil, err
	}
	v, ok := any(item).(models.Versioned)
	if !ok {
		return nil, response.NewBadRequest(s.name + " is not versioned")
	}
	objectType, id := v.RevisionKey()
	return s.revisions.List(objectType, id)
}

func getID(item interface{}) uint {
	v := reflect.Indirect(reflect.ValueOf(item)).FieldByName("ID")
	if !v.IsValid() {
		return 0
	}
	return uint(v.Uint())
}

func setID(item interface{}, id uint) {
	v := reflect.Indirect(reflect.ValueOf(item)).FieldByName("ID")
	if v.IsValid() && v.CanSet() {
		v.SetUint(uint64(id))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
