// Package fsutil はファイルシステム操作のユーティリティを提供する。
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// WithTempFile は body を実行した後、成否にかかわらず path を削除する。
// body のエラーを優先して返し、body が成功した場合のみ削除のエラーを返す。
func WithTempFile(path string, body func(path string) error) (err error) {
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) && err == nil {
			err = fmt.Errorf("removing temp file %q: %w", path, rmErr)
		}
	}()
	return body(path)
}
