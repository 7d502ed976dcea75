package models

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
)

// Connection is the persisted wallet connection
type Connection struct {
	Address   common.Address `json:"address"`
	WatchOnly bool           `json:"watch_only,omitempty"`
}

type WalletStore struct {
	ConnectionFile string
}

func NewWalletStore(configDir string) *WalletStore {
	return &WalletStore{
		ConnectionFile: filepath.Join(configDir, ".wallet"),
	}
}

func (ws *WalletStore) SaveConnection(conn Connection) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return err
	}
	return os.WriteFile(ws.ConnectionFile, data, 0600) // Restricted permissions
}

// GetConnection returns the connected account, or ErrNotConnected when none is stored
func (ws *WalletStore) GetConnection() (*Connection, error) {
	data, err := os.ReadFile(ws.ConnectionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotConnected
		}
		return nil, err
	}

	var conn Connection
	if err := json.Unmarshal(data, &conn); err != nil {
		return nil, err
	}
	if conn.Address == (common.Address{}) {
		return nil, ErrNotConnected
	}
	return &conn, nil
}

func (ws *WalletStore) ClearConnection() error {
	if _, err := os.Stat(ws.ConnectionFile); os.IsNotExist(err) {
		return nil // Nothing connected
	}
	return os.Remove(ws.ConnectionFile)
}
