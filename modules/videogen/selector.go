package videogen

import "quel-video-server/modules/submodule/veo"

// ExtensionChainCeilingSeconds - extension backend가 현실적으로 만들 수 있는 최대 길이
// base 8초 + 20회 x 7초 = 148초
const ExtensionChainCeilingSeconds = veo.BaseDurationSeconds + veo.MaxExtensions*veo.ExtensionDurationSeconds

// SelectProvider - 요청 파라미터만 보고 backend를 고르는 순수 함수
//  1. 호출자가 override를 지정하면 무조건 그 backend (정상 범위 밖이어도)
//  2. 목표 길이가 extension chain 한도를 넘으면 long-duration backend
//  3. 그 외에는 extension-capable backend
func SelectProvider(req *GenerationRequest) string {
	if req.ProviderOverride != "" {
		return req.ProviderOverride
	}
	if req.TargetDurationSeconds > ExtensionChainCeilingSeconds {
		return ProviderLTX
	}
	return ProviderVeo
}
