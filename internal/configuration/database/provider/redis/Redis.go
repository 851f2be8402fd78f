package redis

import (
	"errors"
	"fmt"
	"time"

	"github.com/casedrop/casedrop/internal/helper"
	"github.com/casedrop/casedrop/internal/models"
	redigo "github.com/gomodule/redigo/redis"
)

// DatabaseProvider contains the database instance
type DatabaseProvider struct {
	pool     *redigo.Pool
	dbPrefix string
}

const keyDbVersion = "dbversion"

// New returns an instance
func New(dbConfig models.DbConnection) (DatabaseProvider, error) {
	if dbConfig.HostUrl == "" {
		return DatabaseProvider{}, errors.New("empty database url was provided")
	}
	p := DatabaseProvider{
		pool:     newPool(dbConfig),
		dbPrefix: dbConfig.RedisPrefix,
	}
	conn := p.pool.Get()
	defer conn.Close()
	_, err := conn.Do("PING")
	if err != nil {
		_ = p.pool.Close()
		return DatabaseProvider{}, err
	}
	return p, nil
}

func newPool(dbConfig models.DbConnection) *redigo.Pool {
	return &redigo.Pool{
		MaxIdle:     10,
		IdleTimeout: 2 * time.Minute,
		Dial: func() (redigo.Conn, error) {
			return redigo.Dial("tcp", dbConfig.HostUrl,
				redigo.DialUsername(dbConfig.RedisUsername),
				redigo.DialPassword(dbConfig.RedisPassword),
				redigo.DialUseTLS(dbConfig.RedisUseSsl),
				redigo.DialConnectTimeout(5*time.Second))
		},
		TestOnBorrow: func(c redigo.Conn, lastUsed time.Time) error {
			if time.Since(lastUsed) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// GetType returns 1, for being a Redis interface
func (p DatabaseProvider) GetType() int {
	return 1 // dbabstraction.TypeRedis
}

// Close the database connection
func (p DatabaseProvider) Close() {
	err := p.pool.Close()
	if err != nil {
		fmt.Println(err)
	}
}

// GetDbVersion gets the version number of the database
func (p DatabaseProvider) GetDbVersion() int {
	version, ok := p.getKeyInt(keyDbVersion)
	if !ok {
		return 0
	}
	return version
}

// SetDbVersion sets the version number of the database
func (p DatabaseProvider) SetDbVersion(newVersion int) {
	p.setKey(keyDbVersion, newVersion)
}

// GetSchemaVersion returns the version number, that the database should be if fully upgraded
func (p DatabaseProvider) GetSchemaVersion() int {
	return 1
}

func (p DatabaseProvider) do(command string, args ...any) (any, error) {
	conn := p.pool.Get()
	defer conn.Close()
	return conn.Do(command, args...)
}

func (p DatabaseProvider) getKeyInt(id string) (int, bool) {
	result, err := p.do("GET", p.dbPrefix+id)
	if result == nil && err == nil {
		return 0, false
	}
	resultInt, err := redigo.Int(result, err)
	helper.Check(err)
	return resultInt, true
}

func (p DatabaseProvider) setKey(id string, content any) {
	_, err := p.do("SET", p.dbPrefix+id, content)
	helper.Check(err)
}

func (p DatabaseProvider) exists(id string) bool {
	result, err := redigo.Bool(p.do("EXISTS", p.dbPrefix+id))
	helper.Check(err)
	return result
}

func (p DatabaseProvider) getHashMap(id string) ([]any, bool) {
	result, err := redigo.Values(p.do("HGETALL", p.dbPrefix+id))
	helper.Check(err)
	if len(result) == 0 {
		return nil, false
	}
	return result, true
}

func (p DatabaseProvider) buildArgs(id string) redigo.Args {
	return redigo.Args{}.Add(p.dbPrefix + id)
}

func (p DatabaseProvider) setHashMap(content redigo.Args) {
	_, err := p.do("HSET", content...)
	helper.Check(err)
}

func (p DatabaseProvider) deleteKey(id string) {
	_, err := p.do("DEL", p.dbPrefix+id)
	helper.Check(err)
}

// getAllHashesWithPrefix returns all hashes with the given prefix, the keys are returned without the database prefix
func (p DatabaseProvider) getAllHashesWithPrefix(prefix string) map[string][]any {
	result := make(map[string][]any)
	cursor := 0
	for {
		values, err := redigo.Values(p.do("SCAN", cursor, "MATCH", p.dbPrefix+prefix+"*", "COUNT", 100))
		helper.Check(err)

		cursor, _ = redigo.Int(values[0], nil)
		keys, _ := redigo.Strings(values[1], nil)
		for _, key := range keys {
			hashValues, err := redigo.Values(p.do("HGETALL", key))
			helper.Check(err)
			if len(hashValues) == 0 {
				continue
			}
			result[key[len(p.dbPrefix):]] = hashValues
		}
		if cursor == 0 {
			break
		}
	}
	return result
}
