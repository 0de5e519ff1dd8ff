/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

var seedOrder = regexp.MustCompile(`^(\d+)_`)

// SeedFile is one .sql file found by SeedFS.
type SeedFile struct {
	Path  string
	Order int
}

// SeedFiles lists the .sql files directly under dir. Files named NN_name.sql
// run in ascending NN, the others after them by name.
func SeedFiles(fsys fs.FS, dir string) ([]SeedFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	files := make([]SeedFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".sql") {
			continue
		}
		order := 999
		if m := seedOrder.FindStringSubmatch(e.Name()); m != nil {
			order, _ = strconv.Atoi(m[1])
		}
		files = append(files, SeedFile{Path: path.Join(dir, e.Name()), Order: order})
	}
	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Order != files[j].Order {
			return files[i].Order < files[j].Order
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// SeedFS executes the seed files under dir, each file in its own
// transaction, and returns the total number of affected rows. The first
// failing file stops the run.
func SeedFS(ctx context.Context, db *bun.DB, fsys fs.FS, dir string) (int64, error) {
	files, err := SeedFiles(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("list seed files: %w", err)
	}
	log := GetLogger()
	var total int64
	for _, f := range files {
		content, err := fs.ReadFile(fsys, f.Path)
		if err != nil {
			return total, fmt.Errorf("read %s: %w", f.Path, err)
		}
		start := time.Now()
		var affected int64
		err = db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, stmt := range splitStatements(string(content)) {
				res, err := tx.ExecContext(ctx, stmt)
				if err != nil {
					return fmt.Errorf("%s: %w", stmt, err)
				}
				n, _ := res.RowsAffected()
				affected += n
			}
			return nil
		})
		if err != nil {
			log.Error("Seed file failed", "file", f.Path, "error", err)
			return total, fmt.Errorf("seed %s: %w", f.Path, err)
		}
		total += affected
		log.Info("Seed file executed", "file", f.Path, "rows_affected", affected, "duration", time.Since(start))
	}
	return total, nil
}

// splitStatements splits on lines ending with ';'. Blank lines and lines
// starting with "--" are dropped.
func splitStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
	)
	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte(' ')
		if strings.HasSuffix(line, ";") {
			flush()
		}
	}
	flush()
	return statements
}
