package repo

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// 领域错误分类。仓储层把底层存储错误翻译成这四类，
// 上层（HTTP handler、工作流引擎）只依赖这些哨兵。
var (
	// ErrNotFound 操作引用了不存在的主键
	ErrNotFound = errors.New("record not found")

	// ErrConflict 唯一性或外键规则被底层存储拒绝
	ErrConflict = errors.New("constraint conflict")

	// ErrValidation 必填字段缺失或取值非法，在任何存储调用之前返回
	ErrValidation = errors.New("validation failed")

	// ErrTransport 网络或webhook调用失败
	ErrTransport = errors.New("transport failure")
)

// MySQL错误码
const (
	mysqlErrDuplicateEntry  = 1062 // 唯一索引冲突
	mysqlErrNoReferencedRow = 1452 // 外键指向不存在的行
)

// translateStoreError 把gorm/MySQL错误翻译为领域错误分类。
// 不认识的错误原样返回，调用方用 %w 包装后继续上抛。
func translateStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDuplicateEntry, mysqlErrNoReferencedRow:
			return ErrConflict
		}
	}
	return err
}

// validationError 构造带字段说明的ErrValidation
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
