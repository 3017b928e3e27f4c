package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 表示记录不存在或不属于当前用户。
var ErrNotFound = errors.New("record not found")

// ErrDuplicateKey 表示主键或唯一索引冲突。
var ErrDuplicateKey = errors.New("duplicate key")

// translate 把 gorm 的错误统一为仓库层的哨兵错误。
func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	}
	return err
}
