package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 按键查询不到记录
var ErrNotFound = errors.New("记录不存在")

// notFound 将 gorm.ErrRecordNotFound 统一转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
