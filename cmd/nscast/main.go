package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/neurochelplus/NeuroScreenCaster/internal/config"
	"github.com/neurochelplus/NeuroScreenCaster/internal/engine"
	"github.com/neurochelplus/NeuroScreenCaster/internal/events"
	"github.com/neurochelplus/NeuroScreenCaster/internal/export"
	"github.com/neurochelplus/NeuroScreenCaster/internal/project"
	"github.com/neurochelplus/NeuroScreenCaster/internal/system"
	"github.com/neurochelplus/NeuroScreenCaster/internal/video"
)

func main() {
	// Увеличиваем лимиты системы (для macOS/Linux)
	system.InitResourceLimits()
	godotenv.Load()

	projectPtr := flag.String("project", "", "Путь к папке проекта или project.json")
	outputPtr := flag.String("output", "", "Путь к итоговому видео (если пусто, <проект>/export_<дата_время>.mp4)")
	configPtr := flag.String("config", "nscast.yaml", "Путь к конфигурации инструмента")
	tuningPtr := flag.String("tuning", "", "Путь к yaml-файлу тюнинга камеры")
	policyPtr := flag.String("policy", "", "Триггер-политика: single-click, multi-click-window, ctrl-click")
	regenPtr := flag.Bool("regen", false, "Пересобрать авто-сегменты из events.json перед экспортом")
	widthPtr := flag.Int("width", 0, "Ширина экспорта (0 — из настроек проекта)")
	heightPtr := flag.Int("height", 0, "Высота экспорта (0 — из настроек проекта)")
	fpsPtr := flag.Int("fps", 0, "FPS экспорта (0 — из настроек проекта)")
	qualityPtr := flag.Int("quality", 0, "Качество видео (0 — авто)")
	debugPtr := flag.Bool("debug-stamp", false, "Выжигать QR-метку паритета в кадры")

	flag.Parse()

	if *projectPtr == "" {
		log.Fatalf("[-] Ошибка: укажите -project")
	}

	cfg, err := config.Load(*configPtr)
	if err != nil {
		log.Fatalf("[-] Ошибка конфигурации: %v", err)
	}

	projectDir, manifestPath := resolveProject(*projectPtr)
	proj, err := project.Load(manifestPath)
	if err != nil {
		log.Fatalf("[-] Ошибка загрузки проекта: %v", err)
	}

	eventsPath := filepath.Join(projectDir, proj.EventsPath)
	evs, err := events.Load(eventsPath)
	if err != nil {
		log.Fatalf("[-] Ошибка загрузки событий: %v", err)
	}
	if evs.RecordingID != proj.ID {
		log.Fatalf("[-] Ошибка: recordingId %s не совпадает с проектом %s", evs.RecordingID, proj.ID)
	}

	if *regenPtr {
		tuning, err := config.LoadEngineTuning(pick(*tuningPtr, cfg.Engine.TuningPath))
		if err != nil {
			log.Fatalf("[-] Ошибка тюнинга камеры: %v", err)
		}
		if *policyPtr != "" {
			tuning.Policy = *policyPtr
		}

		segs := engine.New(tuning).BuildSegments(evs, proj.DurationMs, proj.AspectRatio())
		if len(segs) == 0 {
			fmt.Println("[!] Движок не нашел ни одного зум-сегмента (пустая телеметрия?)")
		}

		// Ручные сегменты переживают пересборку, авто-сегменты заменяются.
		manual := proj.Timeline.ZoomSegments[:0]
		for _, seg := range proj.Timeline.ZoomSegments {
			if !seg.IsAuto {
				manual = append(manual, seg)
			}
		}
		proj.Timeline.ZoomSegments = append(manual, segs...)
		if err := proj.Save(manifestPath); err != nil {
			log.Fatalf("[-] Ошибка сохранения проекта: %v", err)
		}
		fmt.Printf("[*] Авто-сегменты пересобраны: %d\n", len(segs))
	}

	if *widthPtr > 0 {
		proj.Settings.Export.Width = *widthPtr
	}
	if *heightPtr > 0 {
		proj.Settings.Export.Height = *heightPtr
	}
	if *fpsPtr > 0 {
		proj.Settings.Export.FPS = *fpsPtr
	}

	outputPath := *outputPtr
	if outputPath == "" {
		timestamp := time.Now().Format("2006-01-02_15-04-05")
		outputPath = filepath.Join(projectDir, fmt.Sprintf("export_%s.mp4", timestamp))
	}

	if err := system.CheckFFmpeg(); err != nil {
		log.Fatalf("[-] Ошибка: %v", err)
	}
	encoderName, _ := system.GetBestH264Encoder()
	if encoderName != "libx264" {
		fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
	}

	fmt.Println("--- [NEUROSCREENCASTER EXPORT] ---")
	fmt.Printf("[*] Проект: %s | Длительность: %d мс\n", proj.Name, proj.DurationMs)
	fmt.Printf("[*] Разрешение: %dx%d @ %d FPS | Сегментов: %d\n",
		proj.Settings.Export.Width, proj.Settings.Export.Height,
		proj.Settings.Export.FPS, len(proj.Timeline.ZoomSegments))
	fmt.Println("----------------------------------")

	enc := &video.FFmpegEncoder{Codec: encoderName, Quality: *qualityPtr}
	driver := export.NewDriver(enc)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Println("\n[!] Отмена экспорта...")
		driver.Cancel()
	}()

	job := export.Job{
		Project:    proj,
		Events:     evs,
		VideoPath:  filepath.Join(projectDir, proj.VideoPath),
		OutputPath: outputPath,
		DebugStamp: *debugPtr || cfg.Export.Debug,
	}

	done := make(chan error, 1)
	go func() { done <- driver.Run(context.Background(), job) }()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			if err != nil {
				log.Fatalf("[-] Ошибка экспорта: %v", err)
			}
			fmt.Printf("\n[+++] Успех! Результат: %s\n", outputPath)
			return
		case <-ticker.C:
			st := driver.Status()
			if st.IsRunning {
				fmt.Printf("\r[>] %s (%.0f%%)", st.Message, st.Progress*100)
			}
		}
	}
}

func resolveProject(path string) (dir, manifest string) {
	info, err := os.Stat(path)
	if err != nil {
		log.Fatalf("[-] Ошибка: проект %s не найден: %v", path, err)
	}
	if info.IsDir() {
		return path, filepath.Join(path, "project.json")
	}
	return filepath.Dir(path), path
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
