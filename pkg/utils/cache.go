package utils

import (
	"sync"
	"time"
)

// TTLCache 带过期时间的内存缓存
// 使用 sync.Map 保证并发安全，过期采用懒删除
type TTLCache struct {
	items sync.Map
	ttl   time.Duration
}

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value      interface{}
	expiration int64
}

// NewTTLCache 创建缓存，ttl 为条目存活时间
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{ttl: ttl}
}

// Set 设置缓存
func (c *TTLCache) Set(key string, value interface{}) {
	c.items.Store(key, cacheItem{
		value:      value,
		expiration: time.Now().Add(c.ttl).UnixNano(),
	})
}

// Get 获取缓存并验证是否过期
func (c *TTLCache) Get(key string) (interface{}, bool) {
	val, ok := c.items.Load(key)
	if !ok {
		return nil, false
	}

	item := val.(cacheItem)

	// 检查是否过期
	if time.Now().UnixNano() > item.expiration {
		c.items.Delete(key) // 懒删除
		return nil, false
	}

	return item.value, true
}

// Touch 刷新条目过期时间，条目存在时返回 true
func (c *TTLCache) Touch(key string) bool {
	val, ok := c.Get(key)
	if !ok {
		return false
	}
	c.Set(key, val)
	return true
}

// Delete 删除缓存 (用完即焚)
func (c *TTLCache) Delete(key string) {
	c.items.Delete(key)
}

// Range 遍历未过期条目
func (c *TTLCache) Range(fn func(key string, value interface{}) bool) {
	now := time.Now().UnixNano()
	c.items.Range(func(k, v interface{}) bool {
		item := v.(cacheItem)
		if now > item.expiration {
			c.items.Delete(k)
			return true
		}
		return fn(k.(string), item.value)
	})
}
