package amiga

import "fmt"

// ErrCode is an AmigaDOS secondary result, as returned by IoErr().
type ErrCode int32

const (
	NO_ERROR                  ErrCode = 0
	ERROR_NO_FREE_STORE       ErrCode = 103
	ERROR_BAD_NUMBER          ErrCode = 115
	ERROR_OBJECT_IN_USE       ErrCode = 202
	ERROR_OBJECT_EXISTS       ErrCode = 203
	ERROR_OBJECT_NOT_FOUND    ErrCode = 205
	ERROR_OBJECT_WRONG_TYPE   ErrCode = 212
	ERROR_DIRECTORY_NOT_EMPTY ErrCode = 216
	ERROR_SEEK_ERROR          ErrCode = 219
)

var errNames = map[ErrCode]string{
	NO_ERROR:                  "NO_ERROR",
	ERROR_NO_FREE_STORE:       "ERROR_NO_FREE_STORE",
	ERROR_BAD_NUMBER:          "ERROR_BAD_NUMBER",
	ERROR_OBJECT_IN_USE:       "ERROR_OBJECT_IN_USE",
	ERROR_OBJECT_EXISTS:       "ERROR_OBJECT_EXISTS",
	ERROR_OBJECT_NOT_FOUND:    "ERROR_OBJECT_NOT_FOUND",
	ERROR_OBJECT_WRONG_TYPE:   "ERROR_OBJECT_WRONG_TYPE",
	ERROR_DIRECTORY_NOT_EMPTY: "ERROR_DIRECTORY_NOT_EMPTY",
	ERROR_SEEK_ERROR:          "ERROR_SEEK_ERROR",
}

func (e ErrCode) String() string {
	if name, ok := errNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ERROR_%d", int32(e))
}
