// nscast-smoke — QA-проверка целостности проекта: схемы project.json и
// events.json, сквозные инварианты и дрейф длительности. Выходной код 1
// при любом критическом нарушении.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
	"github.com/neurochelplus/NeuroScreenCaster/internal/system"
	"github.com/neurochelplus/NeuroScreenCaster/internal/video"
)

// Пороги дрейфа длительности записи против декодированного видео.
const (
	durationDriftWarn     = 0.08
	durationDriftCritical = 0.25
)

// Допуски координат курсора: небольшой отрицательный зазор на стыках
// мониторов и 5% сверху на DPI-округления.
const (
	cursorNegativeTolerancePx = 2.0
	cursorOverrunRatio        = 1.05
)

type report struct {
	failures int
	warnings int
}

func (r *report) failf(format string, args ...interface{}) {
	r.failures++
	fmt.Printf("[FAIL] "+format+"\n", args...)
}

func (r *report) warnf(format string, args ...interface{}) {
	r.warnings++
	fmt.Printf("[WARN] "+format+"\n", args...)
}

func main() {
	godotenv.Load()

	projectPtr := flag.String("project", "", "Путь к папке проекта или project.json")
	rootPtr := flag.String("root", "", "Корень с проектами: проверить все")
	checkExportPtr := flag.Bool("check-export", false, "Декодировать raw-видео и проверить дрейф длительности")
	flag.Parse()

	var targets []string
	switch {
	case *projectPtr != "":
		targets = []string{*projectPtr}
	case *rootPtr != "":
		found, err := system.FindProjects(*rootPtr)
		if err != nil {
			log.Fatalf("[-] Ошибка: %v", err)
		}
		targets = found
	default:
		log.Fatalf("[-] Ошибка: укажите -project или -root")
	}

	rep := &report{}
	for _, target := range targets {
		checkProject(target, *checkExportPtr, rep)
	}

	fmt.Printf("--- Проверено проектов: %d | Ошибок: %d | Предупреждений: %d ---\n",
		len(targets), rep.failures, rep.warnings)
	if rep.failures > 0 {
		os.Exit(1)
	}
}

func checkProject(path string, checkExport bool, rep *report) {
	dir := path
	manifest := filepath.Join(path, "project.json")
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		dir = filepath.Dir(path)
		manifest = path
	}
	fmt.Printf("[*] Проект: %s\n", dir)

	proj, err := project.Load(manifest)
	if err != nil {
		rep.failf("project.json: %v", err)
		return
	}
	if _, err := uuid.Parse(proj.ID); err != nil {
		rep.failf("id %q не является UUID", proj.ID)
	}

	evs, err := events.Load(filepath.Join(dir, proj.EventsPath))
	if err != nil {
		rep.failf("events.json: %v", err)
		return
	}

	if evs.RecordingID != proj.ID {
		rep.failf("recordingId %q не совпадает с id проекта %q", evs.RecordingID, proj.ID)
	}

	checkCursorBounds(evs, rep)
	checkSegments(proj, rep)

	if checkExport {
		checkDurationDrift(dir, proj, rep)
	}
}

// checkCursorBounds verifies pointer coordinates stay inside the captured
// screen, allowing the DPI tolerances: a couple of pixels negative, 5%
// overrun, and logical-coordinate events that fit once multiplied by the
// scale factor.
func checkCursorBounds(evs *events.File, rep *report) {
	sw := float64(evs.ScreenWidth)
	sh := float64(evs.ScreenHeight)
	bad := 0
	for _, ev := range evs.Events {
		if !ev.IsPointer() {
			continue
		}
		if !coordOK(ev.X, sw, evs.ScaleFactor) || !coordOK(ev.Y, sh, evs.ScaleFactor) {
			bad++
		}
	}
	if bad > 0 {
		rep.failf("%d событий с координатами вне экрана %dx%d",
			bad, evs.ScreenWidth, evs.ScreenHeight)
	}
}

func coordOK(v, dim, scale float64) bool {
	if v >= -cursorNegativeTolerancePx && v <= dim*cursorOverrunRatio {
		return true
	}
	// Логические координаты: допустимы, если после умножения на
	// scaleFactor укладываются в физические границы.
	return v >= -cursorNegativeTolerancePx && v*scale <= dim*cursorOverrunRatio
}

func checkSegments(proj *project.Project, rep *report) {
	for _, seg := range proj.Timeline.ZoomSegments {
		if !seg.InitialRect.Valid() {
			rep.failf("сегмент %q: initialRect %+v вне [0,1]", seg.ID, seg.InitialRect)
		}
		if seg.StartTS < 0 || seg.EndTS > proj.DurationMs+1 {
			rep.failf("сегмент %q: [%d,%d] выходит за запись %d мс",
				seg.ID, seg.StartTS, seg.EndTS, proj.DurationMs)
		}
		for _, pt := range seg.TargetPoints {
			if !pt.Rect.Valid() {
				rep.failf("сегмент %q: target point %d вне [0,1]", seg.ID, pt.TS)
				break
			}
		}
	}
}

func checkDurationDrift(dir string, proj *project.Project, rep *report) {
	probe, err := video.ProbeFile(filepath.Join(dir, proj.VideoPath))
	if err != nil {
		rep.failf("raw-видео: %v", err)
		return
	}
	if probe.Width != proj.VideoWidth || probe.Height != proj.VideoHeight {
		rep.warnf("размер видео %dx%d не совпадает с проектом %dx%d",
			probe.Width, probe.Height, proj.VideoWidth, proj.VideoHeight)
	}

	if proj.DurationMs <= 0 {
		rep.failf("durationMs = %d", proj.DurationMs)
		return
	}
	drift := math.Abs(float64(probe.DurationMs-proj.DurationMs)) / float64(proj.DurationMs)
	switch {
	case drift > durationDriftCritical:
		rep.failf("дрейф длительности %.1f%% (видео %d мс, проект %d мс)",
			drift*100, probe.DurationMs, proj.DurationMs)
	case drift > durationDriftWarn:
		rep.warnf("дрейф длительности %.1f%% (видео %d мс, проект %d мс)",
			drift*100, probe.DurationMs, proj.DurationMs)
	}
}
