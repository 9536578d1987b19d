package cache

import (
	"sync"

	"github.com/stridefit/backend/internal/model"
	"github.com/stridefit/backend/internal/pkg/cache"
)

var (
	PreservedConflicts *cache.Singular[[]*model.Conflict]
	HeldRecords        *cache.Singular[[]*model.HeldRecord]

	ConflictByID *cache.Set[model.Conflict]

	once sync.Once
)

func Initialize() {
	once.Do(initializeCaches)
}

func initializeCaches() {
	PreservedConflicts = cache.NewSingular[[]*model.Conflict]("preservedConflicts")
	HeldRecords = cache.NewSingular[[]*model.HeldRecord]("heldRecords")
	ConflictByID = cache.NewSet[model.Conflict]("conflictById")
}

// Flush drops every cached read-through view. The preservation service calls
// it after any write that changes held/preserved state.
func Flush() {
	PreservedConflicts.Delete()
	HeldRecords.Delete()
	ConflictByID.Clear()
}
