package handler

import (
	"encoding/json"
	"fmt"

	"recruit-track-go/internal/repo"

	"gorm.io/datatypes"
)

// parseSparseUpdate 解析稀疏更新请求体：只接受白名单内的列，
// 未出现的字段不进入更新集。切片和对象值编码为JSON列的字节。
func parseSparseUpdate(body []byte, allowed map[string]bool) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: 请求体解析失败: %v", repo.ErrValidation, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: 更新内容不能为空", repo.ErrValidation)
	}

	updates := make(map[string]interface{}, len(raw))
	for column, value := range raw {
		if !allowed[column] {
			return nil, fmt.Errorf("%w: 不允许更新列 %q", repo.ErrValidation, column)
		}
		switch value.(type) {
		case []interface{}, map[string]interface{}:
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("%w: 列 %q 编码失败: %v", repo.ErrValidation, column, err)
			}
			updates[column] = datatypes.JSON(encoded)
		default:
			updates[column] = value
		}
	}
	return updates, nil
}
