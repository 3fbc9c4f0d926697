package providers

import "github.com/fisherhq/fisher/internal/ferrors"

func providerNotFound(name string) error {
	return ferrors.ProviderNotFound(name)
}

func invalidInput(msg string) error {
	return ferrors.InvalidInput(msg)
}
