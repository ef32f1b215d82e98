package domain

import (
	"encoding/json"
	"fmt"
)

// WriteOpType - тип операции в атомарном батче
type WriteOpType int

const (
	// WriteOpSet полностью заменяет документ
	WriteOpSet WriteOpType = iota
	// WriteOpMerge перезаписывает только переданные поля верхнего уровня
	WriteOpMerge
	// WriteOpDelete удаляет документ
	WriteOpDelete
)

func (t WriteOpType) String() string {
	switch t {
	case WriteOpSet:
		return "set"
	case WriteOpMerge:
		return "merge"
	case WriteOpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// WriteOp - одна операция батча. Data - JSON объект.
type WriteOp struct {
	Type WriteOpType
	Path string
	Data []byte
}

// WriteBatch собирает операции, которые хранилище применяет атомарно
type WriteBatch struct {
	ops []WriteOp
}

func NewWriteBatch() *WriteBatch {
	return &WriteBatch{}
}

// Set добавляет полную замену документа
func (b *WriteBatch) Set(path string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	b.ops = append(b.ops, WriteOp{Type: WriteOpSet, Path: path, Data: data})
	return nil
}

// Merge добавляет частичное обновление документа
func (b *WriteBatch) Merge(path string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	b.ops = append(b.ops, WriteOp{Type: WriteOpMerge, Path: path, Data: data})
	return nil
}

// Delete добавляет удаление документа
func (b *WriteBatch) Delete(path string) {
	b.ops = append(b.ops, WriteOp{Type: WriteOpDelete, Path: path})
}

func (b *WriteBatch) Ops() []WriteOp {
	return b.ops
}

func (b *WriteBatch) Len() int {
	return len(b.ops)
}

// Paths возвращает пути всех операций, используется в логах
func (b *WriteBatch) Paths() []string {
	paths := make([]string, len(b.ops))
	for i, op := range b.ops {
		paths[i] = op.Type.String() + " " + op.Path
	}
	return paths
}

// Document - сырой документ из хранилища
type Document struct {
	Path string
	Data []byte
}
