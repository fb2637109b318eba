package store

import (
	"context"
	"fmt"
)

// CreateBrand inserts a global brand.
func (s *Store) CreateBrand(ctx context.Context, b Brand) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO brands (name, slug, logo, affiliate_link, description, founded, headquarters, rating)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Name, b.Slug, b.Logo, b.AffiliateLink, b.Description, b.Founded, b.Headquarters, b.Rating)
	if err != nil {
		return 0, constraintError(err, fmt.Sprintf("brand %q already exists", b.Slug))
	}
	return res.LastInsertId()
}

// CreateBrandGeo inserts the GEO layer for a brand.
func (s *Store) CreateBrandGeo(ctx context.Context, bg BrandGeo) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO brand_geos (brand_id, geo_id, welcome_bonus, bonus_code, license_info, payment_methods, rating)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		bg.BrandID, bg.GeoID, bg.WelcomeBonus, bg.BonusCode, bg.LicenseInfo, bg.PaymentMethods, bg.Rating)
	if err != nil {
		return 0, constraintError(err, "brand already has data for this geo")
	}
	return res.LastInsertId()
}

// AddBrandVertical records that a brand operates in a vertical.
func (s *Store) AddBrandVertical(ctx context.Context, brandID, verticalID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO brand_verticals (brand_id, vertical_id) VALUES (?, ?)", brandID, verticalID)
	if err != nil {
		return constraintError(err, "brand already attached to this vertical")
	}
	return nil
}

// AddSiteBrand ranks a brand on a site.
func (s *Store) AddSiteBrand(ctx context.Context, siteID, brandID int64, rank int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO site_brands (site_id, brand_id, rank) VALUES (?, ?, ?)", siteID, brandID, rank)
	if err != nil {
		return 0, constraintError(err, "brand already attached to this site")
	}
	return res.LastInsertId()
}

// SetBrandOverride creates or replaces the site-specific override for a
// site-brand row.
func (s *Store) SetBrandOverride(ctx context.Context, o SiteBrandOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_brand_overrides (site_brand_id, description, selling_points, affiliate_link, welcome_bonus, bonus_code)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(site_brand_id) DO UPDATE SET
			description = excluded.description,
			selling_points = excluded.selling_points,
			affiliate_link = excluded.affiliate_link,
			welcome_bonus = excluded.welcome_bonus,
			bonus_code = excluded.bonus_code`,
		o.SiteBrandID, o.Description, o.SellingPoints, o.AffiliateLink, o.WelcomeBonus, o.BonusCode)
	if err != nil {
		return fmt.Errorf("set brand override: %w", err)
	}
	return nil
}

// listBrandViews loads the ranked brands of a site with GEO layer and
// overrides attached. Caller holds the lock.
func (s *Store) listBrandViews(ctx context.Context, siteID, geoID int64) ([]BrandView, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sb.rank,
			b.id, b.name, b.slug, b.logo, b.affiliate_link, b.description, b.founded, b.headquarters, b.rating,
			bg.id, bg.brand_id, bg.geo_id, bg.welcome_bonus, bg.bonus_code, bg.license_info, bg.payment_methods, bg.rating,
			o.id, o.site_brand_id, o.description, o.selling_points, o.affiliate_link, o.welcome_bonus, o.bonus_code
		FROM site_brands sb
		JOIN brands b ON b.id = sb.brand_id
		LEFT JOIN brand_geos bg ON bg.brand_id = b.id AND bg.geo_id = ?
		LEFT JOIN site_brand_overrides o ON o.site_brand_id = sb.id
		WHERE sb.site_id = ?
		ORDER BY sb.rank`, geoID, siteID)
	if err != nil {
		return nil, fmt.Errorf("query site brands: %w", err)
	}
	defer rows.Close()

	var out []BrandView
	for rows.Next() {
		var bv BrandView
		var bg struct {
			id, brandID, geoID                                  *int64
			welcomeBonus, bonusCode, licenseInfo, paymentMethods *string
			rating                                              *float64
		}
		var ov struct {
			id, siteBrandID                                                *int64
			description, sellingPoints, affiliateLink, welcomeBonus, bonusCode *string
		}
		err := rows.Scan(&bv.Rank,
			&bv.Brand.ID, &bv.Brand.Name, &bv.Brand.Slug, &bv.Brand.Logo, &bv.Brand.AffiliateLink,
			&bv.Brand.Description, &bv.Brand.Founded, &bv.Brand.Headquarters, &bv.Brand.Rating,
			&bg.id, &bg.brandID, &bg.geoID, &bg.welcomeBonus, &bg.bonusCode, &bg.licenseInfo, &bg.paymentMethods, &bg.rating,
			&ov.id, &ov.siteBrandID, &ov.description, &ov.sellingPoints, &ov.affiliateLink, &ov.welcomeBonus, &ov.bonusCode)
		if err != nil {
			return nil, fmt.Errorf("scan site brand: %w", err)
		}
		if bg.id != nil {
			bv.Geo = &BrandGeo{
				ID: *bg.id, BrandID: *bg.brandID, GeoID: *bg.geoID,
				WelcomeBonus: *bg.welcomeBonus, BonusCode: *bg.bonusCode,
				LicenseInfo: *bg.licenseInfo, PaymentMethods: *bg.paymentMethods,
				Rating: *bg.rating,
			}
		}
		if ov.id != nil {
			bv.Override = &SiteBrandOverride{
				ID: *ov.id, SiteBrandID: *ov.siteBrandID,
				Description: *ov.description, SellingPoints: *ov.sellingPoints,
				AffiliateLink: *ov.affiliateLink, WelcomeBonus: *ov.welcomeBonus,
				BonusCode: *ov.bonusCode,
			}
		}
		out = append(out, bv)
	}
	return out, rows.Err()
}
