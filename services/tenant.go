package services

import (
	"github.com/dinehub/scheduling-engine/events"
	"github.com/dinehub/scheduling-engine/models"
	"github.com/dinehub/scheduling-engine/repository"
	"github.com/dinehub/scheduling-engine/utils"
)

// checkScope menolak referensi lintas tenant walaupun layer di atas sudah
// meng-otorisasi; setiap pelanggaran dicatat sebagai event keamanan.
func checkScope(scope repository.TenantKey, entity string, id, orgID, restaurantID uint) error {
	if orgID != scope.OrgID || restaurantID != scope.RestaurantID {
		utils.ErrorLogger.Printf("SECURITY: cross-tenant %s reference (id=%d org=%d restaurant=%d, caller org=%d restaurant=%d)",
			entity, id, orgID, restaurantID, scope.OrgID, scope.RestaurantID)
		return &models.TenantScopeError{Entity: entity, ID: id}
	}
	return nil
}

// emitIntent menyimpan notification intent lalu menyiarkannya ke dashboard
// staff. Pengiriman ke customer dilakukan dispatcher eksternal yang membaca
// intent tersimpan.
func emitIntent(store *repository.Store, intent models.NotificationIntent) {
	if err := store.Intents.Create(&intent); err != nil {
		utils.ErrorLogger.Printf("failed to persist %s intent: %v", intent.Kind, err)
		return
	}
	events.BroadcastIntent(intent)
}
