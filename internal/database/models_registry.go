package database

import "gcxportal/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters: parents precede children so AutoMigrate creates foreign key
// targets first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Region{},
		&models.Commodity{},
		&models.School{},
		&models.DocumentRequirement{},
		&models.SupplierApplication{},
		&models.TeamMember{},
		&models.NextOfKin{},
		&models.BankAccount{},
		&models.DocumentUpload{},
		&models.OutstandingDocumentRequest{},
		&models.SupplierContract{},
		&models.ContractDocument{},
		&models.ContractSigning{},
		&models.DeliveryTracking{},
		&models.StoreReceiptVoucher{},
		&models.Invoice{},
		&models.AuditLog{},
	}
}
