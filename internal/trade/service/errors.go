package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 业务错误分类。handler 层通过 errors.Is 映射HTTP状态码，
// 持久层错误一律包装后原样上抛，不吞错。
var (
	ErrNotFound          = errors.New("记录不存在")
	ErrInvalidState      = errors.New("当前状态不允许该操作")
	ErrInsufficientStock = errors.New("库存不足")
	ErrValidation        = errors.New("参数校验失败")
)

// wrapLookup 查询错误分类：只有记录缺失归为 ErrNotFound，
// 其余持久层故障（连接、SQL）包装后原样上抛，不伪装成 404。
func wrapLookup(err error, label, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, label, id)
	}
	return fmt.Errorf("查询%s失败: %w", label, err)
}
