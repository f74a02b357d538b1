package l2bin

import "errors"

// Sentinel errors surfaced by Run and mapped to exit codes by cmd/l2bin
// (§7): configuration errors exit 1, semantic/data errors exit -1,
// an explicit empty result exits 110.
var (
	ErrConfiguration = errors.New("l2bin: configuration error")
	ErrSemantic      = errors.New("l2bin: semantic error")
	ErrNoOutput      = errors.New("l2bin: no output produced")
)
