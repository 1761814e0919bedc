package repo

import (
	"context"
	"fmt"

	"recruit-track-go/internal/storage/models"

	"gorm.io/gorm/clause"
)

// SettingRepository 应用设置仓储，按 (category, key) 读写
type SettingRepository struct {
	*base
}

// Get 读取设置值，不存在时返回ErrNotFound
func (r *SettingRepository) Get(ctx context.Context, category, key string) (string, error) {
	var row models.AppSetting
	err := r.db.WithContext(ctx).
		Where("setting_category = ? AND setting_key = ?", category, key).
		First(&row).Error
	if err != nil {
		return "", fmt.Errorf("读取设置 %s/%s 失败: %w", category, key, translateStoreError(err))
	}
	return row.SettingValue, nil
}

// Set 写入设置值，已存在则覆盖
func (r *SettingRepository) Set(ctx context.Context, category, key, value string) error {
	row := models.AppSetting{
		SettingCategory: category,
		SettingKey:      key,
		SettingValue:    value,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_category"}, {Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("写入设置 %s/%s 失败: %w", category, key, translateStoreError(err))
	}
	return nil
}
