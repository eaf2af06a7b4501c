package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-keeper/internal/model"
)

// KVRepository is a string key-value store scoped to one namespace.
// Keys of other namespaces are never read or written.
type KVRepository struct {
	db     *gorm.DB
	prefix string
}

func NewKVRepository(db *gorm.DB, namespace string) *KVRepository {
	return &KVRepository{db: db, prefix: namespace + "/"}
}

// Namespace returns the namespace the repository was created for.
func (r *KVRepository) Namespace() string {
	return r.prefix[:len(r.prefix)-1]
}

// Get returns the value stored under key; ok is false when the key is absent.
func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var entry model.Entry
	err := r.db.WithContext(ctx).Where("entry_key = ?", r.prefix+key).First(&entry).Error
	switch {
	case err == nil:
		return entry.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
}

func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	entry := model.Entry{Key: r.prefix + key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Remove(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("entry_key = ?", r.prefix+key).
		Delete(&model.Entry{}).Error; err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Clear erases every key of the namespace. Entries of nested namespaces
// (work/team under work) are left alone.
func (r *KVRepository) Clear(ctx context.Context) error {
	keys, err := r.keys(ctx)
	if err != nil {
		return fmt.Errorf("clear %s: %w", r.Namespace(), err)
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		full = append(full, r.prefix+key)
	}
	if err := r.db.WithContext(ctx).Where("entry_key IN ?", full).
		Delete(&model.Entry{}).Error; err != nil {
		return fmt.Errorf("clear %s: %w", r.Namespace(), err)
	}
	return nil
}

// keys lists the namespace's own keys without the prefix.
func (r *KVRepository) keys(ctx context.Context) ([]string, error) {
	var raw []string
	if err := r.db.WithContext(ctx).Model(&model.Entry{}).
		Where("SUBSTR(entry_key, 1, ?) = ?", len(r.prefix), r.prefix).
		Order("entry_key ASC").
		Pluck("entry_key", &raw).Error; err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for _, key := range raw {
		key = key[len(r.prefix):]
		if strings.Contains(key, "/") {
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}
