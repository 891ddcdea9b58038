package service

import (
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-trade/internal/trade/entity"
	"github.com/bitfantasy/nimo-trade/internal/trade/repository"
	"github.com/google/uuid"
)

// PartnerService 客户与供应商档案
type PartnerService struct {
	clientRepo   *repository.ClientRepository
	supplierRepo *repository.SupplierRepository
}

func NewPartnerService(clientRepo *repository.ClientRepository, supplierRepo *repository.SupplierRepository) *PartnerService {
	return &PartnerService{clientRepo: clientRepo, supplierRepo: supplierRepo}
}

// --- Client ---

type CreateClientRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

func (s *PartnerService) CreateClient(req CreateClientRequest, userID string) (*entity.Client, error) {
	client := &entity.Client{
		ID:          uuid.New().String(),
		ClientCode:  fmt.Sprintf("CLI-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000),
		Name:        req.Name,
		ContactName: req.ContactName,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		Status:      entity.ClientStatusActive,
		Notes:       req.Notes,
		CreatedBy:   userID,
	}
	if err := s.clientRepo.Create(client); err != nil {
		return nil, fmt.Errorf("创建客户失败: %w", err)
	}
	return client, nil
}

func (s *PartnerService) GetClient(id string) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "客户", id)
	}
	return client, nil
}

type UpdateClientRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	Status      string `json:"status"`
	Notes       string `json:"notes"`
}

func (s *PartnerService) UpdateClient(id string, req UpdateClientRequest) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "客户", id)
	}
	client.Name = req.Name
	client.ContactName = req.ContactName
	client.Phone = req.Phone
	client.Email = req.Email
	client.Address = req.Address
	client.Notes = req.Notes
	if req.Status != "" {
		switch req.Status {
		case entity.ClientStatusActive, entity.ClientStatusInactive:
			client.Status = req.Status
		default:
			return nil, fmt.Errorf("%w: 非法客户状态 %s", ErrValidation, req.Status)
		}
	}
	if err := s.clientRepo.Update(client); err != nil {
		return nil, fmt.Errorf("更新客户失败: %w", err)
	}
	return client, nil
}

func (s *PartnerService) ListClients(params repository.ClientListParams) ([]entity.Client, int64, error) {
	return s.clientRepo.List(params)
}

func (s *PartnerService) DeleteClient(id string) error {
	if _, err := s.clientRepo.GetByID(id); err != nil {
		return wrapLookup(err, "客户", id)
	}
	return s.clientRepo.Delete(id)
}

// --- Supplier ---

type CreateSupplierRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactName  string `json:"contact_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	PaymentTerms string `json:"payment_terms"`
	Notes        string `json:"notes"`
}

func (s *PartnerService) CreateSupplier(req CreateSupplierRequest, userID string) (*entity.Supplier, error) {
	supplier := &entity.Supplier{
		ID:           uuid.New().String(),
		SupplierCode: fmt.Sprintf("SUP-%s%04d", time.Now().Format("20060102"), time.Now().UnixNano()%10000),
		Name:         req.Name,
		ContactName:  req.ContactName,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		PaymentTerms: req.PaymentTerms,
		Status:       entity.SupplierStatusActive,
		Notes:        req.Notes,
		CreatedBy:    userID,
	}
	if err := s.supplierRepo.Create(supplier); err != nil {
		return nil, fmt.Errorf("创建供应商失败: %w", err)
	}
	return supplier, nil
}

func (s *PartnerService) GetSupplier(id string) (*entity.Supplier, error) {
	supplier, err := s.supplierRepo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "供应商", id)
	}
	return supplier, nil
}

type UpdateSupplierRequest struct {
	Name         string `json:"name" binding:"required"`
	ContactName  string `json:"contact_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	PaymentTerms string `json:"payment_terms"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
}

func (s *PartnerService) UpdateSupplier(id string, req UpdateSupplierRequest) (*entity.Supplier, error) {
	supplier, err := s.supplierRepo.GetByID(id)
	if err != nil {
		return nil, wrapLookup(err, "供应商", id)
	}
	supplier.Name = req.Name
	supplier.ContactName = req.ContactName
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	supplier.PaymentTerms = req.PaymentTerms
	supplier.Notes = req.Notes
	if req.Status != "" {
		switch req.Status {
		case entity.SupplierStatusActive, entity.SupplierStatusInactive:
			supplier.Status = req.Status
		default:
			return nil, fmt.Errorf("%w: 非法供应商状态 %s", ErrValidation, req.Status)
		}
	}
	if err := s.supplierRepo.Update(supplier); err != nil {
		return nil, fmt.Errorf("更新供应商失败: %w", err)
	}
	return supplier, nil
}

func (s *PartnerService) ListSuppliers(params repository.SupplierListParams) ([]entity.Supplier, int64, error) {
	return s.supplierRepo.List(params)
}

func (s *PartnerService) DeleteSupplier(id string) error {
	if _, err := s.supplierRepo.GetByID(id); err != nil {
		return wrapLookup(err, "供应商", id)
	}
	return s.supplierRepo.Delete(id)
}
