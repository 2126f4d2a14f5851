package repository

import (
	"errors"

	"iotcare-data/internal/apperr"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// normalize 把驱动错误转换为 apperr 分类
func normalize(record string, err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return apperr.Conflict(record, "record with this identity already exists", err)
		case pqForeignKeyViolation:
			return apperr.Conflict(record, "referenced entity does not exist", err)
		}
	}
	return apperr.Persistence(record, err)
}
