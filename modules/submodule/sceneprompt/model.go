package sceneprompt

// scenePromptInstruction - Gemini에게 continuation 프롬프트 작성을 지시하는 템플릿
// 응답은 반드시 JSON 문자열 배열이어야 한다.
const scenePromptInstruction = `You are a film director writing shot directions for a continuous long-form video.

The video opens with this scene:
"%s"

Write exactly %d continuation shot directions. Each one extends the video by a few seconds and must flow naturally from the previous shot - same subject, same world, camera and action evolving continuously. Keep each direction under 40 words. Do not re-describe the opening scene.

Respond with ONLY a JSON array of %d strings, no markdown, no commentary.`
