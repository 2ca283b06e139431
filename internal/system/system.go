package system

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось получить лимит файлов: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Не удалось установить лимит файлов: %v", err)
	}
}

// RenderWorkers picks the compose-worker count for an export: one per
// physical core, reduced when available memory could not hold the frame
// buffers the workers keep in flight.
func RenderWorkers(frameW, frameH int) int {
	workers, err := cpu.Counts(false)
	if err != nil || workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers < 1 {
		workers = 1
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		frameBytes := uint64(frameW) * uint64(frameH) * 4
		if frameBytes > 0 {
			// Держим в памяти не больше половины доступного объема.
			budget := vm.Available / 2
			maxByMem := int(budget / (frameBytes * 4))
			if maxByMem >= 1 && maxByMem < workers {
				workers = maxByMem
			}
		}
	}
	return workers
}

func GetBestH264Encoder() (string, string) {
	// Приоритеты:
	// 1. MacOS (VideoToolbox)
	// 2. NVIDIA (NVENC)
	// 3. Software (libx264)

	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}

	for _, enc := range encoders {
		cmd := exec.Command("ffmpeg", "-encoders")
		out, err := cmd.CombinedOutput()
		if err == nil && strings.Contains(string(out), enc.name) {
			return enc.name, enc.args
		}
	}

	return "libx264", ""
}

// CheckFFmpeg verifies the ffmpeg binary is reachable.
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg не найден в PATH: %w", err)
	}
	return nil
}

// FindProjects lists project directories under root: every directory
// holding a project.json.
func FindProjects(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var projects []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifest := filepath.Join(root, entry.Name(), "project.json")
		if _, err := os.Stat(manifest); err == nil {
			projects = append(projects, filepath.Join(root, entry.Name()))
		}
	}

	if len(projects) == 0 {
		return nil, fmt.Errorf("в папке %s не найдено проектов", root)
	}
	return projects, nil
}
