package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ManifestName is the fixed manifest filename written next to the assets.
const ManifestName = "epconfig.txt"

// writeManifest serializes the metadata map as one key=value line per entry.
// Keys are sorted so repeated exports of the same batch produce identical
// files; the format promises no particular order.
func writeManifest(outputDir string, metadata map[string]string) error {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%s\n", key, metadata[key])
	}
	return os.WriteFile(filepath.Join(outputDir, ManifestName), []byte(b.String()), 0o644)
}
