package libgl

import (
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"pbrview/logger"

	"github.com/go-gl/gl/v4.5-core/gl"
	"go.uber.org/zap"
)

const ProgramCacheExpiry = 30 * 24 * time.Hour

// ProgramCache stores linked program binaries on disk keyed by source and driver.
// A nil *ProgramCache is a valid, always-missing cache.
type ProgramCache struct {
	Dir      string
	Disabled bool
	// driver identifies the GL implementation the binaries were produced by.
	driver string
	now    func() time.Time
}

func NewProgramCache(dir string) *ProgramCache {
	driver := ""
	if Env != nil {
		driver = Env.Vendor + Env.Renderer + Env.Version
	}
	return &ProgramCache{
		Dir:    dir,
		driver: driver,
		now:    time.Now,
	}
}

func (cache *ProgramCache) key(source string) string {
	hasher := md5.New()
	hasher.Write([]byte(source))
	hasher.Write([]byte(cache.driver))
	return fmt.Sprintf("%x", hasher.Sum(nil))
}

func (cache *ProgramCache) path(source string) string {
	return filepath.Join(cache.Dir, cache.key(source)+".bin")
}

func (cache *ProgramCache) Put(source string, programId uint32) {
	if cache == nil || cache.Disabled {
		return
	}
	var length int32
	gl.GetProgramiv(programId, gl.PROGRAM_BINARY_LENGTH, &length)
	if length == 0 {
		return
	}
	buf := make([]byte, length)
	var format uint32
	gl.GetProgramBinary(programId, length, &length, &format, Pointer(buf))
	if err := cache.write(source, format, buf[:length]); err != nil {
		logger.Log.Warn("Could not write program cache", zap.Error(err))
	}
}

func (cache *ProgramCache) write(source string, format uint32, buf []byte) (err error) {
	if err = os.MkdirAll(cache.Dir, 0755); err != nil {
		return fmt.Errorf("could not create program cache directory: %w", err)
	}
	file, err := os.OpenFile(cache.path(source), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()
	if err = binary.Write(file, binary.LittleEndian, format); err != nil {
		return err
	}
	_, err = file.Write(buf)
	return err
}

func (cache *ProgramCache) Get(source string) (ok bool, buf []byte, format uint32) {
	if cache == nil || cache.Disabled {
		return
	}
	buf, format, err := cache.read(source)
	if err != nil {
		logger.Log.Warn("Could not read program cache", zap.Error(err))
		return false, nil, 0
	}
	return buf != nil, buf, format
}

func (cache *ProgramCache) read(source string) (buf []byte, format uint32, err error) {
	programPath := cache.path(source)
	info, err := os.Stat(programPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	// the driver might have been updated since
	if cache.now().Sub(info.ModTime()) > ProgramCacheExpiry {
		return nil, 0, os.Remove(programPath)
	}
	file, err := os.Open(programPath)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()
	if err = binary.Read(file, binary.LittleEndian, &format); err != nil {
		return nil, 0, err
	}
	buf, err = io.ReadAll(file)
	if err != nil {
		return nil, 0, err
	}
	return buf, format, nil
}
