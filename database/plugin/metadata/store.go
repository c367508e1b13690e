// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metadata

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/ticketd/database/models"
	"github.com/blinklabs-io/ticketd/database/plugin"
	"github.com/blinklabs-io/ticketd/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// MetadataStore holds the relational registry state. Lookups return a nil
// model and no error when the row does not exist.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Accounts and roles
	GetAccount(string, types.Txn) (*models.Account, error)
	SetAccountBalance(string, types.Balance, types.Txn) error
	AddRole(string, string, types.Txn) error
	RemoveRole(string, string, types.Txn) error
	HasRole(string, string, types.Txn) (bool, error)
	GetRoleAccounts(string, types.Txn) ([]string, error)
	SetReceiver(string, string, types.Txn) error
	DeleteReceiver(string, types.Txn) error
	GetReceiver(string, types.Txn) (*models.Receiver, error)

	// Raffles
	GetRaffle(uint64, types.Txn) (*models.Raffle, error)
	CreateRaffle(*models.Raffle, types.Txn) error
	SetRaffleTicketCount(uint64, uint64, types.Txn) error
	GetRaffles(int, int, types.Txn) ([]models.Raffle, error)
	CountRaffles(types.Txn) (uint64, error)
	GetNextTicketID(types.Txn) (uint64, error)
	SetNextTicketID(uint64, types.Txn) error

	// Tickets and approvals
	GetTicket(uint64, types.Txn) (*models.Ticket, error)
	CreateTickets([]models.Ticket, types.Txn) error
	SetTicketOwner(uint64, string, types.Txn) error
	SetTicketNextApprovalID(uint64, uint64, types.Txn) error
	GetTickets(int, int, types.Txn) ([]models.Ticket, error)
	GetTicketsByID([]uint64, types.Txn) ([]models.Ticket, error)
	GetTicketsForRaffle(uint64, int, int, types.Txn) ([]models.Ticket, error)
	CountTickets(types.Txn) (uint64, error)
	SetApproval(uint64, string, uint64, types.Txn) error
	DeleteApproval(uint64, string, types.Txn) (bool, error)
	DeleteApprovals(uint64, types.Txn) error

	// Owner index
	AddOwnerTickets(string, []uint64, types.Txn) error
	RemoveOwnerTicket(string, uint64, types.Txn) error
	GetOwnerTicket(uint64, types.Txn) (*models.OwnerTicket, error)
	GetOwnerTicketIDs(string, int, int, types.Txn) ([]uint64, error)
	CountOwnerTickets(string, types.Txn) (uint64, error)
}

// New returns the started metadata plugin selected by name
func New(
	pluginName string,
	logger *slog.Logger,
	promRegistry prometheus.Registerer,
) (MetadataStore, error) {
	p, err := plugin.StartPlugin(
		plugin.PluginTypeMetadata,
		pluginName,
		logger,
		promRegistry,
	)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
