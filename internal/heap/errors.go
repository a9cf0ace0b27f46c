package heap

import (
	"fmt"

	"github.com/orizon-lang/vmheap/internal/herrors"
)

func invalidFreeErr(addr uintptr) *herrors.StandardError {
	return herrors.InvalidFree(addr)
}

func outOfMemoryErr(size uintptr) *herrors.StandardError {
	return herrors.OutOfMemory(size)
}

func leakErr(n int) *herrors.StandardError {
	return herrors.NewStandardError(herrors.CategoryValidation, "LEAK_ON_CLOSE",
		fmt.Sprintf("%d allocation(s) still outstanding at close", n),
		map[string]interface{}{"activeAllocations": n})
}
