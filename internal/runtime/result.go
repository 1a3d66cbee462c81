package runtime

import (
	"sync"

	"github.com/nyxlang/nyx/internal/value"
)

// resultClass is constructed lazily: Result is a plain *value.Object of a
// synthetic class carrying "ok"/"value"/"error" fields, with its behavior
// (isSuccess, getOrNull, ...) supplied entirely through the stdlib
// extension table (registerResultStdlib) rather than a Methods table,
// since a native Go func isn't a shape either MethodSlot.Body consumer
// (hir's methodBody, vm's mirMethodBody) knows how to invoke.
var resultClassOnce sync.Once
var resultClass *value.Class

func getResultClass() *value.Class {
	resultClassOnce.Do(func() {
		resultClass = value.NewClass("Result", nil)
		resultClass.AddField("ok", value.Public, false)
		resultClass.AddField("value", value.Public, false)
		resultClass.AddField("error", value.Public, false)
	})
	return resultClass
}

func (rt *Runtime) newResultOk(v value.Value) *value.Object {
	obj := value.NewObject(getResultClass())
	obj.SetField("ok", value.Bool(true))
	obj.SetField("value", v)
	obj.SetField("error", value.Null)
	return obj
}

func (rt *Runtime) newResultErr(message string) *value.Object {
	obj := value.NewObject(getResultClass())
	obj.SetField("ok", value.Bool(false))
	obj.SetField("value", value.Null)
	obj.SetField("error", value.String(message))
	return obj
}
