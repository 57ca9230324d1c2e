package ports

import "github.com/voltbridge/voltbridge/internal/core/domain"

type RepoManager interface {
	Swaps() domain.SwapRepository
	Close()
}
