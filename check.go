package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/donutnomad/derivegen/internal/logger"
	"github.com/donutnomad/derivegen/plugin"
)

// errStale 生成文件与源码不一致，diff 已输出，不再重复打印错误
var errStale = errors.New("生成文件已过期")

var checkCmd = &cobra.Command{
	Use:   "check [路径...]",
	Short: "检查生成文件是否与源码一致，不一致时输出 diff 并以状态 1 退出",
	Args:  cobra.ArbitraryArgs,
	RunE:  runCheck,
}

// staleFile 一个过期的生成文件
type staleFile struct {
	Path string
	Diff string
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	opts := s.runOptions(patternsOrDefault(args))
	opts.DryRun = true
	stats, runErr := plugin.RunWithOptionsAndStats(context.Background(), opts)
	if stats == nil {
		return runErr
	}

	stale, err := staleOutputs(stats.Outputs, opts.BaseDir)
	if err != nil {
		return err
	}
	printStale(cmd.OutOrStdout(), stale)

	if runErr != nil {
		return runErr
	}
	if len(stale) > 0 {
		logger.Default().Error("生成文件已过期，请重新运行 derivegen", "files", len(stale))
		return errStale
	}
	logger.Default().Info("生成文件均为最新", "files", len(stats.Outputs))
	return nil
}

// staleOutputs 比较渲染结果与磁盘上的文件，文件不存在视为空
func staleOutputs(outputs map[string][]byte, baseDir string) ([]staleFile, error) {
	paths := lo.Keys(outputs)
	slices.Sort(paths)

	var stale []staleFile
	for _, path := range paths {
		want := outputs[path]
		have, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
		}
		if bytes.Equal(have, want) {
			continue
		}

		name := displayPath(path, baseDir)
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(have)),
			B:        difflib.SplitLines(string(want)),
			FromFile: name,
			ToFile:   name + " (generated)",
			Context:  3,
		})
		if err != nil {
			return nil, fmt.Errorf("计算 %s 的 diff 失败: %w", path, err)
		}
		stale = append(stale, staleFile{Path: path, Diff: diff})
	}
	return stale, nil
}

func printStale(w io.Writer, stale []staleFile) {
	for _, f := range stale {
		_, _ = fmt.Fprint(w, f.Diff)
	}
}

func displayPath(path, baseDir string) string {
	if baseDir == "" {
		return path
	}
	if rel, err := filepath.Rel(baseDir, path); err == nil {
		return rel
	}
	return path
}
