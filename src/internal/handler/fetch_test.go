package handler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAddressFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.txt")
	content := `# 高风险地址
0xaaa1000000000000000000000000000000000001
// 注释行
0xbbb2000000000000000000000000000000000002, some label

0xccc3000000000000000000000000000000000003 tab-separated-note
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	addrs, err := readAddressFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0xaaa1000000000000000000000000000000000001",
		"0xbbb2000000000000000000000000000000000002",
		"0xccc3000000000000000000000000000000000003",
	}, addrs)
}

func TestReadAddressFileErrors(t *testing.T) {
	_, err := readAddressFile("")
	assert.Error(t, err)

	_, err = readAddressFile(filepath.Join(t.TempDir(), "absent.txt"))
	assert.Error(t, err)
}
