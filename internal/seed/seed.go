// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gcxportal/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumApplications int
	ShouldClean     bool
}

var ghanaRegions = []string{
	"Greater Accra", "Ashanti", "Western", "Eastern", "Central",
	"Volta", "Northern", "Upper East", "Upper West", "Bono",
}

// commodityCatalog pairs commodity names with the processed-food flag that
// drives the FDA certificate requirement.
var commodityCatalog = []struct {
	Code          string
	Name          string
	ProcessedFood bool
}{
	{"MAIZE", "Maize", false},
	{"RICE", "Rice (local)", false},
	{"BEANS", "Beans", false},
	{"MILLET", "Millet", false},
	{"SORGHUM", "Sorghum", false},
	{"GARI", "Gari", true},
	{"TOM_BROWN", "Tom Brown", true},
	{"PALM_OIL", "Palm Oil", true},
	{"GROUNDNUT_PASTE", "Groundnut Paste", true},
	{"VEGETABLE_OIL", "Vegetable Oil", true},
}

var requirementCatalog = []models.DocumentRequirement{
	{Code: "BUSINESS_REGISTRATION", Name: "Business Registration Certificate", IsRequired: true, IsActive: true},
	{Code: "TAX_CLEARANCE", Name: "Tax Clearance Certificate", IsRequired: true, IsActive: true},
	{Code: models.RequirementVATCertificate, Name: "VAT Registration Certificate", IsRequired: true, IsActive: true},
	{Code: "SSNIT_CLEARANCE", Name: "SSNIT Clearance Certificate", IsRequired: true, IsActive: true},
	// Conditional: pulled in for processed-food suppliers only.
	{Code: models.RequirementFDACertificate, Name: "FDA Certificate", IsRequired: false, IsActive: true},
}

// Seed populates the database with demo data.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d applications...", opts.NumApplications)

	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("warning: could not clear all existing data, continuing anyway")
		}
	}

	regions, err := seedRegions(db)
	if err != nil {
		return fmt.Errorf("seed regions: %w", err)
	}
	commodities, err := seedCommodities(db)
	if err != nil {
		return fmt.Errorf("seed commodities: %w", err)
	}
	schools, err := seedSchools(db, regions)
	if err != nil {
		return fmt.Errorf("seed schools: %w", err)
	}
	if err := seedRequirements(db); err != nil {
		return fmt.Errorf("seed requirements: %w", err)
	}
	if err := seedStaffUsers(db); err != nil {
		return fmt.Errorf("seed staff users: %w", err)
	}

	f := NewFactory(db)
	for i := 0; i < opts.NumApplications; i++ {
		if _, err := f.CreateApplication(regions, commodities, schools); err != nil {
			return fmt.Errorf("seed application %d: %w", i, err)
		}
	}

	log.Println("Seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	// Children before parents to respect FK constraints.
	tables := []string{
		"audit_logs", "invoices", "store_receipt_vouchers", "delivery_trackings",
		"contract_signings", "contract_documents", "supplier_contracts",
		"outstanding_request_requirements", "outstanding_document_requests",
		"document_uploads", "bank_accounts", "next_of_kins", "team_members",
		"application_commodities", "application_schools", "supplier_applications",
	}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedRegions(db *gorm.DB) ([]models.Region, error) {
	regions := make([]models.Region, 0, len(ghanaRegions))
	for _, name := range ghanaRegions {
		region := models.Region{Name: name}
		if err := db.Where(models.Region{Name: name}).FirstOrCreate(&region).Error; err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func seedCommodities(db *gorm.DB) ([]models.Commodity, error) {
	commodities := make([]models.Commodity, 0, len(commodityCatalog))
	for _, entry := range commodityCatalog {
		commodity := models.Commodity{
			Code:            entry.Code,
			Name:            entry.Name,
			IsProcessedFood: entry.ProcessedFood,
		}
		if err := db.Where(models.Commodity{Code: entry.Code}).FirstOrCreate(&commodity).Error; err != nil {
			return nil, err
		}
		commodities = append(commodities, commodity)
	}
	return commodities, nil
}

func seedSchools(db *gorm.DB, regions []models.Region) ([]models.School, error) {
	var schools []models.School
	for _, region := range regions {
		for i := 0; i < 3; i++ {
			name := fmt.Sprintf("%s %s School", gofakeit.City(), gofakeit.RandomString([]string{"Basic", "Primary", "Junior High"}))
			school := models.School{
				Name:     name,
				RegionID: region.ID,
				District: gofakeit.City() + " District",
			}
			if err := db.Where(models.School{Name: name, RegionID: region.ID}).FirstOrCreate(&school).Error; err != nil {
				return nil, err
			}
			schools = append(schools, school)
		}
	}
	return schools, nil
}

func seedRequirements(db *gorm.DB) error {
	for _, entry := range requirementCatalog {
		requirement := entry
		if err := db.Where(models.DocumentRequirement{Code: entry.Code}).FirstOrCreate(&requirement).Error; err != nil {
			return err
		}
	}
	return nil
}

func seedStaffUsers(db *gorm.DB) error {
	staff := []models.User{
		{Username: "admin", Email: "admin@gcx.local", Role: models.RoleAdmin},
		{Username: "reviewer", Email: "reviewer@gcx.local", Role: models.RoleStaff},
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte("ChangeMe!Portal123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	for _, user := range staff {
		user.Password = string(hashed)
		user.MustChangePassword = true
		if err := db.Where(models.User{Username: user.Username}).FirstOrCreate(&user).Error; err != nil {
			return err
		}
	}
	return nil
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db *gorm.DB
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// CreateApplication persists a randomized supplier application with team
// members, next of kin and a bank account.
func (f *Factory) CreateApplication(regions []models.Region, commodities []models.Commodity, schools []models.School) (*models.SupplierApplication, error) {
	region := regions[gofakeit.Number(0, len(regions)-1)]

	picked := pickCommodities(commodities)
	pickedSchools := pickSchools(schools, region.ID)

	app := &models.SupplierApplication{
		BusinessName:       gofakeit.Company() + " " + gofakeit.RandomString([]string{"Ltd", "Enterprise", "Ventures"}),
		RegistrationNumber: fmt.Sprintf("BN-%d", gofakeit.Number(100000, 999999)),
		BusinessType:       gofakeit.RandomString([]string{"sole_proprietorship", "limited_liability", "partnership"}),
		RegionID:           region.ID,
		YearsInOperation:   gofakeit.Number(1, 25),
		ContactPerson:      gofakeit.Name(),
		Email:              gofakeit.Email(),
		Phone:              gofakeit.Phone(),
		Address:            gofakeit.Street() + ", " + gofakeit.City(),
		Commodities:        picked,
		Schools:            pickedSchools,
		DeclarationAgreed:  true,
		Status:             models.StatusPendingReview,
		TrackingCode:       fmt.Sprintf("GCX-SUP-%s", strings.ToUpper(uuid.New().String()[:8])),
		CompletionToken:    uuid.New().String(),
		TeamMembers: []models.TeamMember{
			{FullName: gofakeit.Name(), Position: "Operations Manager", Phone: gofakeit.Phone()},
			{FullName: gofakeit.Name(), Position: "Accountant", Phone: gofakeit.Phone()},
		},
		NextOfKin: []models.NextOfKin{
			{FullName: gofakeit.Name(), Relationship: "spouse", Phone: gofakeit.Phone()},
		},
		BankAccounts: []models.BankAccount{
			{BankName: gofakeit.RandomString([]string{"GCB Bank", "Ecobank", "Absa", "Stanbic"}), AccountName: gofakeit.Company(), AccountNumber: fmt.Sprintf("%d", gofakeit.Number(1000000000, 9999999999)), Branch: gofakeit.City()},
		},
	}

	if err := f.db.Create(app).Error; err != nil {
		return nil, err
	}
	return app, nil
}

func pickCommodities(commodities []models.Commodity) []models.Commodity {
	n := gofakeit.Number(1, 3)
	picked := make([]models.Commodity, 0, n)
	seen := map[uint]bool{}
	for len(picked) < n {
		c := commodities[gofakeit.Number(0, len(commodities)-1)]
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		picked = append(picked, c)
	}
	return picked
}

func pickSchools(schools []models.School, regionID uint) []models.School {
	var inRegion []models.School
	for _, school := range schools {
		if school.RegionID == regionID {
			inRegion = append(inRegion, school)
		}
	}
	if len(inRegion) == 0 {
		return nil
	}
	n := gofakeit.Number(1, len(inRegion))
	return inRegion[:n]
}
