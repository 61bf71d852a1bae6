package file

import (
	"BillionairesDashboard/src/telemetry"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"
	"golang.org/x/sync/singleflight"
)

// LoaderFunc 按路径加载并清洗数据集
type LoaderFunc func(path string) (dataframe.DataFrame, error)

// FileInfo 缓存中的一个数据集
type FileInfo struct {
	Name     string
	FullPath string
	LoadedAt time.Time
	df       dataframe.DataFrame
}

// DataFrame 返回缓存的数据集，调用方只读
func (fi *FileInfo) DataFrame() dataframe.DataFrame {
	return fi.df
}

// Cache 以绝对路径为键的数据集缓存
// 加载失败不缓存，下次请求会重新读取
type Cache struct {
	loader  LoaderFunc
	metrics *telemetry.Metrics

	mu      sync.RWMutex
	entries map[string]*FileInfo
	group   singleflight.Group
}

func NewCache(loader LoaderFunc, metrics *telemetry.Metrics) *Cache {
	return &Cache{
		loader:  loader,
		metrics: metrics,
		entries: make(map[string]*FileInfo),
	}
}

// SchemaLoader 使用固定schema和工作表名的LoaderFunc
func SchemaLoader(schema Schema, sheetName string) LoaderFunc {
	return func(path string) (dataframe.DataFrame, error) {
		return LoadDataset(path, schema, sheetName)
	}
}

func cacheKey(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDataLoad, err)
	}
	return abs, nil
}

// Get 命中缓存直接返回，否则加载一次
func (c *Cache) Get(path string) (*FileInfo, error) {
	key, err := cacheKey(path)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	fi, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.metrics.CacheHit()
		return fi, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		fi, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return fi, nil
		}

		c.metrics.CacheMiss()
		t1 := time.Now()
		df, err := c.loader(key)
		c.metrics.ObserveLoad(time.Since(t1))
		if err != nil {
			return nil, err
		}

		fi = &FileInfo{
			Name:     filepath.Base(key),
			FullPath: key,
			LoadedAt: time.Now(),
			df:       df,
		}
		c.mu.Lock()
		c.entries[key] = fi
		c.mu.Unlock()
		return fi, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*FileInfo), nil
}

// Invalidate 删除某个路径的缓存
func (c *Cache) Invalidate(path string) bool {
	key, err := cacheKey(path)
	if err != nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Clear 清空全部缓存
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]*FileInfo)
	return n
}

// Len 当前缓存的数据集数量
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
