package filesystem

import (
	"os"

	"github.com/pkg/errors"
)

// HomeDirectory returns the current user's home directory. Unlike a cached
// lookup, a failure here is reported rather than fatal, since only the default
// configuration path depends on it.
func HomeDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to determine home directory")
	} else if home == "" {
		return "", errors.New("empty home directory")
	}
	return home, nil
}
