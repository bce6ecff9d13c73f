package services

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	macKeyPattern         = regexp.MustCompile(`^nic\.\d+\.mac_address\.\d+$`)
	nicKeyPattern         = regexp.MustCompile(`^nic\.(\d+)`)
	adapterNumberPattern  = regexp.MustCompile(`^nic\.(\d+)\.`)
	adapterNamePattern    = regexp.MustCompile(`^nic\.\d+\.adapter_name\.\d+`)
	ipv4AddressKeyPattern = regexp.MustCompile(`^nic\.(\d+)\.ipv4_address`)
)

// nicSiblings maps the sibling key suffix of a NIC to the task type it feeds.
var nicSiblings = []struct {
	suffix   string
	taskType string
}{
	{"dhcp_scope.0", models.TaskTypeDHCP},
	{"reverse_dns_zone.0", models.TaskTypeReverseDNSZone},
}

// "key" is reserved in MySQL, so conditions on it go through clause
// expressions that quote per dialect.
func keyEq(key string) clause.Expression {
	return clause.Eq{Column: clause.Column{Name: "key"}, Value: key}
}

func keyLike(pattern string) clause.Expression {
	return clause.Expr{SQL: "? LIKE ?" + likeEscape, Vars: []interface{}{clause.Column{Name: "key"}, pattern}}
}

var orderByKey = clause.OrderByColumn{Column: clause.Column{Name: "key"}}

// NormalizeKeyValue trims key and value and rewrites MAC addresses
// written with dashes to the colon form.
func NormalizeKeyValue(key, value string) (string, string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if macKeyPattern.MatchString(key) {
		value = strings.ReplaceAll(value, "-", ":")
	}
	return key, value
}

type KeyValueService struct {
	db    *gorm.DB
	tasks *ScheduledTaskService
}

func NewKeyValueService(db *gorm.DB, tasks *ScheduledTaskService) *KeyValueService {
	return &KeyValueService{db: db, tasks: tasks}
}

type KeyValueListRequest struct {
	SystemID uint   `form:"system"`
	Key      string `form:"key"`
	Value    string `form:"value"`
	Search   string `form:"search"`
}

type KeyValueRequest struct {
	System *Ref    `json:"system" form:"system"`
	Key    *string `json:"key" form:"key"`
	Value  *string `json:"value" form:"value"`
}

func (s *KeyValueService) List(req *KeyValueListRequest) ([]models.KeyValue, error) {
	query := s.db.Model(&models.KeyValue{})
	if req.SystemID != 0 {
		query = query.Where("system_id = ?", req.SystemID)
	}
	if req.Key != "" {
		query = query.Where(keyEq(req.Key))
	}
	if req.Value != "" {
		query = query.Where("value = ?", req.Value)
	}
	if req.Search != "" {
		like := LikeContains(req.Search)
		query = query.Where(s.db.Where(keyLike(like)).Or(likeExpr("value"), like))
	}

	var kvs []models.KeyValue
	if err := query.Order(orderByKey).Order("id").Find(&kvs).Error; err != nil {
		return nil, err
	}
	return kvs, nil
}

// ForSystem returns a system's key-values ordered by key.
func (s *KeyValueService) ForSystem(systemID uint) ([]models.KeyValue, error) {
	return s.List(&KeyValueListRequest{SystemID: systemID})
}

func (s *KeyValueService) GetByID(id uint) (*models.KeyValue, error) {
	var kv models.KeyValue
	if err := s.db.First(&kv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("key value not found")
		}
		return nil, err
	}
	return &kv, nil
}

func (s *KeyValueService) resolveSystem(ref *Ref) (*models.System, error) {
	if ref == nil || ref.Empty() {
		return nil, response.NewFieldError("system", "This Field Is Required. (system)")
	}
	var sys models.System
	found, err := findByLookupFields(s.db, &sys, ref.String(), "id", "hostname")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, unableToFind("system", "System", *ref)
	}
	return &sys, nil
}

// Create attaches a new key-value to a system and schedules regeneration
// tasks when the key belongs to a network adapter.
func (s *KeyValueService) Create(req *KeyValueRequest) (*models.KeyValue, error) {
	sys, err := s.resolveSystem(req.System)
	if err != nil {
		return nil, err
	}
	key, value := NormalizeKeyValue(deref(req.Key), deref(req.Value))
	kv := &models.KeyValue{Key: key, Value: value, SystemID: &sys.ID}

	var scheduled []models.ScheduledTask
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.validate(tx, kv); err != nil {
			return err
		}
		if err := tx.Create(kv).Error; err != nil {
			return err
		}
		rows, err := s.trigger(tx, sys.ID, kv.Key)
		if err != nil {
			return err
		}
		scheduled = append(scheduled, rows...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.tasks.publish(scheduled)
	return kv, nil
}

// Update changes key and value. The trigger fires for the old key before the
// change and for the new key after it.
func (s *KeyValueService) Update(id uint, req *KeyValueRequest) (*models.KeyValue, error) {
	kv, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if kv.SystemID == nil {
		return nil, response.NewBadRequest("key value is not attached to a system")
	}
	systemID := *kv.SystemID

	newKey, newValue := kv.Key, kv.Value
	if req.Key != nil {
		newKey = *req.Key
	}
	if req.Value != nil {
		newValue = *req.Value
	}
	newKey, newValue = NormalizeKeyValue(newKey, newValue)

	var scheduled []models.ScheduledTask
	err = s.db.Transaction(func(tx *gorm.DB) error {
		before, err := s.trigger(tx, systemID, kv.Key)
		if err != nil {
			return err
		}
		scheduled = append(scheduled, before...)

		kv.Key, kv.Value = newKey, newValue
		if err := s.validate(tx, kv); err != nil {
			return err
		}
		if err := tx.Model(kv).Updates(map[string]interface{}{"key": kv.Key, "value": kv.Value}).Error; err != nil {
			return err
		}

		after, err := s.trigger(tx, systemID, kv.Key)
		if err != nil {
			return err
		}
		scheduled = append(scheduled, after...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.tasks.publish(scheduled)
	return kv, nil
}

// Delete removes a key-value, scheduling regeneration for its adapter first.
func (s *KeyValueService) Delete(id uint) (*models.KeyValue, error) {
	kv, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	var scheduled []models.ScheduledTask
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if kv.SystemID != nil {
			rows, err := s.trigger(tx, *kv.SystemID, kv.Key)
			if err != nil {
				return err
			}
			scheduled = rows
		}
		return tx.Delete(kv).Error
	})
	if err != nil {
		return nil, err
	}
	s.tasks.publish(scheduled)
	return kv, nil
}

// trigger appends a scheduled task for each sibling dhcp scope or reverse
// zone key of the NIC named by key. Keys outside nic.<n> do nothing.
func (s *KeyValueService) trigger(tx *gorm.DB, systemID uint, key string) ([]models.ScheduledTask, error) {
	m := nicKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return nil, nil
	}

	var rows []models.ScheduledTask
	for _, sib := range nicSiblings {
		var sibling models.KeyValue
		found, err := firstWhere(tx.Where(keyEq(fmt.Sprintf("nic.%s.%s", m[1], sib.suffix))), &sibling,
			"system_id = ?", systemID)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		row, err := s.tasks.append(tx, sibling.Value, sib.taskType)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

func (s *KeyValueService) validate(tx *gorm.DB, kv *models.KeyValue) error {
	var count int64
	query := tx.Model(&models.KeyValue{}).
		Where(keyEq(kv.Key)).
		Where("value = ? AND system_id = ?", kv.Value, kv.SystemID)
	if kv.ID != 0 {
		query = query.Where("id <> ?", kv.ID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return response.NewBadRequest("A key with this value already exists.")
	}

	if ipv4AddressKeyPattern.MatchString(kv.Key) && kv.Value != "" {
		var other models.KeyValue
		found, err := firstWhere(tx.Where(keyLike("nic.%.ipv4_address%")), &other,
			"value = ? AND system_id <> ?", kv.Value, kv.SystemID)
		if err != nil {
			return err
		}
		if found {
			return response.NewBadRequest(fmt.Sprintf("IP address %s is already assigned to another system", kv.Value))
		}
	}
	return nil
}

// AdapterNumbers returns the distinct NIC numbers in use on a system, sorted.
func (s *KeyValueService) AdapterNumbers(systemID uint) ([]int, error) {
	var keys []string
	if err := s.db.Model(&models.KeyValue{}).
		Where("system_id = ?", systemID).
		Where(keyLike("nic%")).
		Pluck("key", &keys).Error; err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	var numbers []int
	for _, key := range keys {
		m := adapterNumberPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers, nil
}

// NICNames returns the adapter_name values configured on a system.
func (s *KeyValueService) NICNames(systemID uint) ([]string, error) {
	var kvs []models.KeyValue
	if err := s.db.Where("system_id = ?", systemID).
		Where(keyLike("nic%")).Where(keyLike("%adapter_name%")).
		Order(orderByKey).Find(&kvs).Error; err != nil {
		return nil, err
	}
	var names []string
	for _, kv := range kvs {
		if adapterNamePattern.MatchString(kv.Key) {
			names = append(names, kv.Value)
		}
	}
	return names, nil
}

// HasAdapter reports whether NIC number n is configured on the system.
func (s *KeyValueService) HasAdapter(systemID uint, n int) (bool, error) {
	numbers, err := s.AdapterNumbers(systemID)
	if err != nil {
		return false, err
	}
	for _, num := range numbers {
		if num == n {
			return true, nil
		}
	}
	return false, nil
}

// HasAdapterName reports whether an adapter with this name exists on the system.
func (s *KeyValueService) HasAdapterName(systemID uint, name string) (bool, error) {
	names, err := s.NICNames(systemID)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// PrimaryIP returns the first ipv4_address value by key order, or "".
func (s *KeyValueService) PrimaryIP(systemID uint) (string, error) {
	var kv models.KeyValue
	found, err := firstWhere(s.db.Where(keyLike("%ipv4_address%")).Order(orderByKey), &kv, "system_id = ?", systemID)
	if err != nil || !found {
		return "", err
	}
	return kv.Value, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
