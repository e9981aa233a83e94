package adapters

import (
	"bufio"
	"bytes"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pyproject-buildrequires/internal/ports"
	"pyproject-buildrequires/internal/types"
)

// MetadataFileAdapter reads core metadata files written by build backends
// and installers.
type MetadataFileAdapter struct{}

func NewMetadataFileAdapter() MetadataFileAdapter {
	return MetadataFileAdapter{}
}

func (a MetadataFileAdapter) ReadMetadataFile(path string) (types.Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Metadata{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to read metadata file " + path).
			WithCause(err)
	}
	return parseMetadata(content), nil
}

// parseMetadata reads the RFC 822 style header block of a METADATA or
// PKG-INFO file. Folded lines continue the previous header and the body
// after the first blank line is ignored.
func parseMetadata(content []byte) types.Metadata {
	var metadata types.Metadata
	var headers []metadataHeader
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			break
		}
		if (line[0] == ' ' || line[0] == '\t') && len(headers) > 0 {
			last := &headers[len(headers)-1]
			last.value += " " + strings.TrimSpace(line)
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers = append(headers, metadataHeader{key: strings.TrimSpace(key), value: strings.TrimSpace(value)})
	}

	for _, header := range headers {
		switch strings.ToLower(header.key) {
		case "name":
			metadata.Name = header.value
		case "version":
			metadata.Version = header.value
		case "requires":
			metadata.Requires = append(metadata.Requires, header.value)
		case "requires-dist":
			metadata.RequiresDist = append(metadata.RequiresDist, header.value)
		}
	}
	return metadata
}

type metadataHeader struct {
	key   string
	value string
}

var _ ports.MetadataPort = MetadataFileAdapter{}
