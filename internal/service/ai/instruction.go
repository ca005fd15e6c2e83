package ai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultInstruction is sent as the system instruction when no instruction
// file is configured.
const DefaultInstruction = `Kamu adalah Education Bot, asisten pembelajaran yang ramah dan sabar untuk semua mata pelajaran.

Peranmu:
- Membantu siswa memahami konsep di berbagai mata pelajaran (Matematika, Sains, Bahasa Inggris, IPA, IPS, dll)
- Menggunakan metode Socratic (bertanya balik) untuk merangsang pemikiran kritis
- Memberikan penjelasan step-by-step yang mudah dipahami
- Menyesuaikan bahasa dengan tingkat pemahaman siswa
- Mendorong siswa untuk berpikir sendiri dengan hints dan clues
- Bersikap positif dan memotivasi siswa dalam belajar

Gaya mengajar:
- Gunakan bahasa Indonesia yang santai namun edukatif
- Berikan analogi atau contoh kehidupan sehari-hari untuk mempermudah pemahaman
- Jika siswa bertanya soal, tanyakan dulu "Apa yang sudah kamu coba?" atau "Bagian mana yang membingungkan?"
- Pecah masalah kompleks menjadi langkah-langkah kecil yang mudah diikuti
- Berikan emoji untuk membuat pembelajaran lebih menyenangkan 📚✨
- Puji usaha dan progress siswa untuk meningkatkan motivasi

Mata pelajaran yang bisa dibantu:
- Matematika (Aljabar, Geometri, Kalkulus, Statistika, dll)
- Sains (Fisika, Kimia, Biologi)
- Bahasa Inggris (Grammar, Vocabulary, Reading Comprehension, Writing)
- Bahasa Indonesia
- Ilmu Pengetahuan Alam (IPA)
- Ilmu Pengetahuan Sosial (IPS)
- Dan mata pelajaran lainnya

Jangan:
- Langsung memberikan jawaban lengkap tanpa proses pembelajaran
- Menggunakan bahasa yang terlalu teknis atau rumit tanpa penjelasan
- Membuat siswa merasa bodoh atau gagal
- Menolak pertanyaan di luar akademik, tapi arahkan kembali ke pembelajaran dengan lembut

Selalu tanyakan di akhir apakah siswa sudah paham atau butuh penjelasan lebih lanjut.`

const reloadDebounce = 100 * time.Millisecond

// InstructionSource holds the system instruction. When backed by a file it
// can follow edits to that file through Watch.
type InstructionSource struct {
	path    string
	current atomic.Pointer[string]
}

// StaticInstruction returns a source that always yields text.
func StaticInstruction(text string) *InstructionSource {
	s := &InstructionSource{}
	s.current.Store(&text)
	return s
}

// NewInstructionSource loads the instruction from path, or falls back to
// DefaultInstruction when path is empty.
func NewInstructionSource(path string) (*InstructionSource, error) {
	if path == "" {
		return StaticInstruction(DefaultInstruction), nil
	}

	s := &InstructionSource{path: filepath.Clean(path)}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the instruction in effect.
func (s *InstructionSource) Current() string {
	return *s.current.Load()
}

// Reload re-reads the instruction file. A failed or blank read keeps the
// previous instruction.
func (s *InstructionSource) Reload() error {
	if s.path == "" {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read instruction file: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return fmt.Errorf("instruction file %s is empty", s.path)
	}

	s.current.Store(&text)
	return nil
}

// Watch reloads the instruction whenever its file changes, until ctx is
// done. Without a backing file it just waits for ctx.
func (s *InstructionSource) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.path), err)
	}

	log.Info().Str("component", "instruction").Str("path", s.path).Msg("watching system instruction")

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				debounce = time.After(reloadDebounce)
			}

		case <-debounce:
			debounce = nil
			if err := s.Reload(); err != nil {
				log.Warn().Err(err).Str("component", "instruction").Msg("keeping previous system instruction")
				continue
			}
			log.Info().Str("component", "instruction").Str("path", s.path).Msg("system instruction reloaded")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Str("component", "instruction").Msg("watcher error")
		}
	}
}
