package mocks

//go:generate mockery --name SnapshotWriter --srcpkg github.com/aevon-lab/poolstats/internal/core/storage --output ./storage --outpkg storagemocks --with-expecter
