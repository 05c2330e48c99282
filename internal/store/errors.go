package store

import "errors"

var (
	// token と user の片方しか無い
	ErrInvalidSession = errors.New("invalid session")
	// 保存に失敗（メモリ上の状態はそのまま）
	ErrPersist = errors.New("persist failed")
)
